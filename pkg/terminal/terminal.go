// Package terminal runs the client screens as a line-oriented terminal app.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"footsize-client/pkg/media"
	"footsize-client/pkg/models"
	"footsize-client/pkg/navigation"
	"footsize-client/pkg/services"
)

var errQuit = errors.New("quit")

type choice struct {
	key   string
	label string
}

// Runner renders the current screen and reads the user's input for it.
type Runner struct {
	app *services.App
	in  *bufio.Reader
	out io.Writer

	gate       media.PermissionGate
	passwordFD int
	log        *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithPasswordInput reads passwords from the terminal fd without echo.
func WithPasswordInput(fd int) Option {
	return func(r *Runner) {
		if term.IsTerminal(fd) {
			r.passwordFD = fd
		}
	}
}

// WithPermissions asks gate before prompting for an image path. It should be
// the gate the app's picker uses, so the answer is asked only once.
func WithPermissions(gate media.PermissionGate) Option {
	return func(r *Runner) { r.gate = gate }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// New creates a runner for app. in must be the same reader any prompting
// permission gate reads from.
func New(app *services.App, in *bufio.Reader, out io.Writer, opts ...Option) *Runner {
	r := &Runner{app: app, in: in, out: out, passwordFD: -1, log: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run shows screens until the user quits, input ends or ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		route := r.app.Route()
		fmt.Fprintf(r.out, "\n== %s ==\n", route.Title())

		var err error
		switch route {
		case navigation.Login:
			err = r.login(ctx)
		case navigation.Register:
			err = r.register(ctx)
		case navigation.Home:
			err = r.home(ctx)
		case navigation.EditProfile:
			err = r.editProfile(ctx)
		}

		switch {
		case errors.Is(err, errQuit), errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}
	}
}

func (r *Runner) login(ctx context.Context) error {
	key, err := r.choose(choice{"l", "Log in"}, choice{"r", "Create an account"}, choice{"q", "Quit"})
	if err != nil {
		return err
	}
	switch key {
	case "r":
		r.app.Login.OpenRegistration()
		return nil
	case "q":
		return errQuit
	}

	email, err := r.prompt("Email")
	if err != nil {
		return err
	}
	password, err := r.password("Password")
	if err != nil {
		return err
	}
	r.report("login", r.app.Login.Submit(ctx, models.Credentials{Email: email, Password: password}))
	return nil
}

func (r *Runner) register(ctx context.Context) error {
	key, err := r.choose(choice{"s", "Sign up"}, choice{"b", "Back to login"}, choice{"q", "Quit"})
	if err != nil {
		return err
	}
	switch key {
	case "b":
		r.app.Register.OpenLogin()
		return nil
	case "q":
		return errQuit
	}

	var form models.RegistrationForm
	if form.Email, err = r.prompt("Email"); err != nil {
		return err
	}
	if form.Password, err = r.password("Password"); err != nil {
		return err
	}
	if form.ConfirmPassword, err = r.password("Confirm password"); err != nil {
		return err
	}
	r.report("register", r.app.Register.Submit(ctx, form))
	return nil
}

func (r *Runner) home(ctx context.Context) error {
	home, err := r.app.Home()
	if err != nil {
		return err
	}
	r.renderHome(home.Snapshot())

	key, err := r.choose(
		choice{"i", "Upload foot image"},
		choice{"m", "Predict foot size"},
		choice{"g", "Change gender"},
		choice{"s", "Shop shoes"},
		choice{"p", "Profile menu"},
		choice{"q", "Quit"},
	)
	if err != nil {
		return err
	}

	switch key {
	case "i":
		return r.pickImage(ctx, home)
	case "m":
		_, err := home.Measure(ctx)
		r.report("measure", err)
	case "g":
		return r.pickGender(home)
	case "s":
		return r.shop(ctx, home)
	case "p":
		return r.profileMenu(home)
	case "q":
		return errQuit
	}
	return nil
}

func (r *Runner) renderHome(snap services.HomeSnapshot) {
	fmt.Fprintf(r.out, "Foot size: %s\n", snap.FootSize)
	fmt.Fprintf(r.out, "Gender: %s\n", snap.Gender.Label())
	if snap.ImageURI != "" {
		fmt.Fprintf(r.out, "Image: %s\n", snap.ImageURI)
	}
	if snap.ShowRecommendations {
		names := make([]string, len(snap.Platforms))
		for i, p := range snap.Platforms {
			names[i] = string(p)
		}
		fmt.Fprintf(r.out, "Shop on: %s\n", strings.Join(names, ", "))
	}
}

func (r *Runner) pickImage(ctx context.Context, home *services.HomeScreen) error {
	home.OpenPicker()
	key, err := r.choose(choice{"c", "Take a photo"}, choice{"g", "Choose from gallery"}, choice{"x", "Cancel"})
	if err != nil {
		return err
	}
	if key == "x" {
		home.ClosePicker()
		return nil
	}

	source := media.SourceCamera
	if key == "g" {
		source = media.SourceGallery
	}

	var path string
	granted := true
	if r.gate != nil {
		if granted, err = r.gate.Request(ctx, source); err != nil {
			return err
		}
	}
	if granted {
		if path, err = r.prompt("Image path (empty to cancel)"); err != nil {
			return err
		}
	}
	r.report("select image", home.SelectImage(ctx, source, path))
	return nil
}

func (r *Runner) pickGender(home *services.HomeScreen) error {
	key, err := r.choose(choice{"m", models.GenderMale.Label()}, choice{"f", models.GenderFemale.Label()})
	if err != nil {
		return err
	}
	g := models.GenderMale
	if key == "f" {
		g = models.GenderFemale
	}
	r.report("set gender", home.SetGender(g))
	return nil
}

func (r *Runner) shop(ctx context.Context, home *services.HomeScreen) error {
	choices := make([]choice, 0, len(models.Platforms)+1)
	for i, p := range models.Platforms {
		choices = append(choices, choice{fmt.Sprint(i + 1), string(p)})
	}
	choices = append(choices, choice{"x", "Cancel"})

	key, err := r.choose(choices...)
	if err != nil || key == "x" {
		return err
	}

	var platform models.Platform
	for i, c := range choices[:len(models.Platforms)] {
		if c.key == key {
			platform = models.Platforms[i]
		}
	}
	url, err := home.ShopLink(ctx, platform)
	if err == nil {
		fmt.Fprintf(r.out, "Opened %s\n", url)
	}
	r.report("shop", err)
	return nil
}

func (r *Runner) profileMenu(home *services.HomeScreen) error {
	home.OpenMenu()
	key, err := r.choose(
		choice{"h", "Home"},
		choice{"e", "Edit Profile"},
		choice{"l", "Logout"},
		choice{"x", "Close"},
	)
	if err != nil {
		return err
	}

	switch key {
	case "h":
		return home.SelectMenu(services.MenuHome)
	case "e":
		return home.SelectMenu(services.MenuEditProfile)
	case "l":
		return home.SelectMenu(services.MenuLogout)
	}
	home.CloseMenu()
	return nil
}

func (r *Runner) editProfile(ctx context.Context) error {
	var form models.ProfileForm
	var err error
	if form.Name, err = r.prompt("Name"); err != nil {
		return err
	}
	if form.Email, err = r.prompt("Email"); err != nil {
		return err
	}
	if form.Phone, err = r.prompt("Phone"); err != nil {
		return err
	}

	key, err := r.choose(choice{"s", "Save Changes"}, choice{"c", "Cancel"})
	if err != nil {
		return err
	}
	if key == "c" {
		r.app.Profile.Cancel()
		return nil
	}
	r.report("edit profile", r.app.Profile.Save(ctx, form))
	return nil
}

// report logs a screen error. The screen has already alerted the user.
func (r *Runner) report(op string, err error) {
	if err != nil {
		r.log.Debug("screen action ended with error", zap.String("op", op), zap.Error(err))
	}
}

func (r *Runner) choose(choices ...choice) (string, error) {
	for {
		for _, c := range choices {
			fmt.Fprintf(r.out, "  [%s] %s\n", c.key, c.label)
		}
		line, err := r.prompt("")
		if err != nil {
			return "", err
		}
		key := strings.ToLower(strings.TrimSpace(line))
		for _, c := range choices {
			if c.key == key {
				return key, nil
			}
		}
		fmt.Fprintf(r.out, "Unknown choice %q\n", line)
	}
}

func (r *Runner) prompt(label string) (string, error) {
	if label != "" {
		fmt.Fprintf(r.out, "%s: ", label)
	} else {
		fmt.Fprint(r.out, "> ")
	}
	line, err := r.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (r *Runner) password(label string) (string, error) {
	if r.passwordFD < 0 {
		return r.prompt(label)
	}
	fmt.Fprintf(r.out, "%s: ", label)
	b, err := term.ReadPassword(r.passwordFD)
	fmt.Fprintln(r.out)
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}
	return string(b), nil
}
