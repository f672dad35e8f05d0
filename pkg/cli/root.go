// Package cli builds the footsize command tree.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"footsize-client/pkg/clients/footapi"
	"footsize-client/pkg/config"
	"footsize-client/pkg/logger"
	"footsize-client/pkg/media"
	"footsize-client/pkg/services"
	"footsize-client/pkg/session"
)

// runtime is what every command needs once flags and config are loaded.
type runtime struct {
	cfg      *config.Config
	log      *zap.Logger
	client   footapi.Client
	sessions *session.Store
}

// deps returns screen dependencies printing alerts to out.
func (rt *runtime) deps(out io.Writer) services.Dependencies {
	return services.Dependencies{
		Client:   rt.client,
		Sessions: rt.sessions,
		Notifier: services.WriterNotifier{W: out},
		Picker: media.NewPicker(media.StaticPermissions{
			Camera:  rt.cfg.CameraPermission,
			Gallery: rt.cfg.GalleryPermission,
		}),
		Config: rt.cfg,
		Logger: rt.log,
	}
}

// NewRootCommand creates the footsize command.
func NewRootCommand() *cobra.Command {
	var configFile string
	v := config.NewViper()
	rt := &runtime{}

	cmd := &cobra.Command{
		Use:          "footsize",
		Short:        "Measure feet from a photo and shop for shoes that fit",
		Long:         "footsize talks to the foot size backend: it signs users in, uploads foot photos for measurement and looks up matching shoes.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(v, configFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
			if err != nil {
				return err
			}

			rt.cfg = cfg
			rt.log = log
			rt.sessions = session.NewStore(0)
			rt.client = footapi.NewClient(cfg.ServerOrigin,
				footapi.WithTimeout(cfg.RequestTimeout),
				footapi.WithLogger(log),
			)
			log.Debug("configuration loaded", zap.String("server_origin", cfg.ServerOrigin), zap.Duration("timeout", cfg.RequestTimeout))
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file")
	config.AddFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newPingCommand(rt),
		newLoginCommand(rt),
		newRegisterCommand(rt),
		newMeasureCommand(rt),
		newEditProfileCommand(rt),
		newRunCommand(rt),
		newServeCommand(rt),
	)
	return cmd
}

// Execute runs the root command with the process arguments. Commands stop
// when ctx is done.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// prompter asks for values missing from the command line.
type prompter struct {
	cmd *cobra.Command
	in  *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{cmd: cmd, in: bufio.NewReader(cmd.InOrStdin())}
}

// secret returns flagValue when set, otherwise prompts for it, without echo
// when the input is a terminal.
func (p *prompter) secret(label, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	errOut := p.cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "%s: ", label)
	if f, ok := p.cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(errOut)
		if err != nil {
			return "", fmt.Errorf("error reading %s: %w", strings.ToLower(label), err)
		}
		return string(b), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("error reading %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
