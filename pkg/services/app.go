package services

import (
	"sync"

	"footsize-client/pkg/navigation"
)

// App wires the four screens to one navigator. The login, registration and
// profile screens hold no state between submissions and live as long as the
// app; a home screen is created each time Home is mounted and closed when it
// is unmounted.
type App struct {
	deps Dependencies
	nav  *navigation.Navigator

	Login    *LoginScreen
	Register *RegistrationScreen
	Profile  *EditProfileScreen

	mu   sync.Mutex
	home *HomeScreen
}

// NewApp creates an app showing the login screen. deps.Navigator is replaced
// by the app's own navigator.
func NewApp(deps Dependencies) *App {
	nav := navigation.New(navigation.Login)
	deps.Navigator = nav
	deps = deps.withDefaults()

	a := &App{
		deps:     deps,
		nav:      nav,
		Login:    NewLoginScreen(deps),
		Register: NewRegistrationScreen(deps),
		Profile:  NewEditProfileScreen(deps),
	}
	nav.Subscribe(a)
	return a
}

// Navigator exposes the screen stack.
func (a *App) Navigator() *navigation.Navigator {
	return a.nav
}

// Route is the screen currently shown.
func (a *App) Route() navigation.Route {
	return a.nav.Current()
}

// Home returns the mounted home screen.
func (a *App) Home() (*HomeScreen, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.home == nil {
		return nil, ErrNotMounted
	}
	return a.home, nil
}

// GoBack pops the current screen.
func (a *App) GoBack() bool {
	return a.nav.GoBack()
}

func (a *App) Mounted(r navigation.Route) {
	if r != navigation.Home {
		return
	}
	a.mu.Lock()
	old := a.home
	a.home = NewHomeScreen(a.deps)
	a.mu.Unlock()

	if old != nil {
		old.Close()
	}
}

func (a *App) Unmounted(r navigation.Route) {
	if r != navigation.Home {
		return
	}
	a.mu.Lock()
	h := a.home
	a.home = nil
	a.mu.Unlock()

	if h != nil {
		h.Close()
	}
}

// Close releases the mounted home screen, if any.
func (a *App) Close() {
	a.Unmounted(navigation.Home)
}
