package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"footsize-client/pkg/media"
	"footsize-client/pkg/models"
	"footsize-client/pkg/opener"
	"footsize-client/pkg/services"
	"footsize-client/pkg/terminal"
)

func newPingCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := rt.client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("backend %s unreachable: %w", rt.cfg.ServerOrigin, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newLoginCommand(rt *runtime) *cobra.Command {
	var creds models.Credentials
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd)
			var err error
			if creds.Password, err = p.secret("Password", creds.Password); err != nil {
				return err
			}
			return services.NewLoginScreen(rt.deps(cmd.OutOrStdout())).Submit(cmd.Context(), creds)
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password (prompted when empty)")
	return cmd
}

func newRegisterCommand(rt *runtime) *cobra.Command {
	var form models.RegistrationForm
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p := newPrompter(cmd)
			var err error
			if form.Password, err = p.secret("Password", form.Password); err != nil {
				return err
			}
			if form.ConfirmPassword, err = p.secret("Confirm password", form.ConfirmPassword); err != nil {
				return err
			}
			return services.NewRegistrationScreen(rt.deps(cmd.OutOrStdout())).Submit(cmd.Context(), form)
		},
	}
	cmd.Flags().StringVar(&form.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&form.Password, "password", "", "Password (prompted when empty)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password again (prompted when empty)")
	return cmd
}

func newMeasureCommand(rt *runtime) *cobra.Command {
	var (
		source string
		gender string
		shop   string
		noOpen bool
	)
	cmd := &cobra.Command{
		Use:   "measure IMAGE",
		Short: "Upload a foot photo and print the estimated size",
		Long:  "Upload a photo of a foot on a sheet of paper, print the estimated size and optionally look up a matching shoe.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			src, err := media.ParseSource(source)
			if err != nil {
				return err
			}
			var platform models.Platform
			if shop != "" {
				if platform, err = models.ParsePlatform(shop); err != nil {
					return err
				}
			}

			deps := rt.deps(out)
			deps.Opener = opener.System{}
			if noOpen {
				deps.Opener = &opener.Recorder{}
			}
			home := services.NewHomeScreen(deps)
			defer home.Close()

			if gender != "" {
				if err := home.SetGender(models.Gender(gender)); err != nil {
					return err
				}
			}
			if err := home.SelectImage(ctx, src, args[0]); err != nil {
				return err
			}

			snap, err := home.Measure(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Foot size: %s\n", snap.FootSize)
			if snap.State != services.StateMeasured.String() {
				return fmt.Errorf("measurement failed: %s", snap.FootSize)
			}
			if m := home.Measurement(); m != nil && m.FootHeight > 0 && m.FootWidth > 0 {
				fmt.Fprintf(out, "Foot outline: %.0f x %.0f px\n", m.FootHeight, m.FootWidth)
			}

			if platform == "" {
				return nil
			}
			url, err := home.ShopLink(ctx, platform)
			if url != "" {
				fmt.Fprintf(out, "%s: %s\n", platform, url)
			}
			return err
		},
	}
	cmd.Flags().StringVar(&source, "source", string(media.SourceGallery), "Image source (camera|gallery)")
	cmd.Flags().StringVar(&gender, "gender", "", "Gender for the shoe lookup (male|female, default from home.gender)")
	cmd.Flags().StringVar(&shop, "shop", "", "Look up a shoe on this platform (Amazon|Flipkart|Zappos)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Print the product link without opening it")
	return cmd
}

func newEditProfileCommand(rt *runtime) *cobra.Command {
	var form models.ProfileForm
	cmd := &cobra.Command{
		Use:   "edit-profile",
		Short: "Update name, email and phone of the configured profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return services.NewEditProfileScreen(rt.deps(cmd.OutOrStdout())).Save(cmd.Context(), form)
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&form.Email, "email", "", "Email")
	cmd.Flags().StringVar(&form.Phone, "phone", "", "Phone number")
	return cmd
}

func newRunCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive app",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()
			gate := media.NewPromptPermissions(in, out)

			deps := rt.deps(out)
			deps.Picker = media.NewPicker(gate)
			deps.Opener = opener.System{}
			app := services.NewApp(deps)
			defer app.Close()

			opts := []terminal.Option{terminal.WithPermissions(gate), terminal.WithLogger(rt.log)}
			if f, ok := cmd.InOrStdin().(*os.File); ok {
				opts = append(opts, terminal.WithPasswordInput(int(f.Fd())))
			}
			return terminal.New(app, in, out, opts...).Run(cmd.Context())
		},
	}
}
