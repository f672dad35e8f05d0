package services

import (
	"context"

	"go.uber.org/zap"

	"footsize-client/pkg/models"
	"footsize-client/pkg/navigation"
	"footsize-client/pkg/utils"
)

// LoginScreen signs the user in and opens the home screen.
type LoginScreen struct {
	deps Dependencies
	log  *zap.Logger
}

// NewLoginScreen creates a login screen
func NewLoginScreen(deps Dependencies) *LoginScreen {
	deps = deps.withDefaults()
	return &LoginScreen{deps: deps, log: deps.Logger.Named("login")}
}

// Submit sends the credentials as typed. Only presence matters to the form,
// the backend decides whether they are valid.
func (s *LoginScreen) Submit(ctx context.Context, creds models.Credentials) error {
	emailHash := utils.RedactEmail(creds.Email)

	result, err := s.deps.Client.Login(ctx, creds)
	if err != nil {
		logFailure(s.log, "login", err, zap.String("email", emailHash))
		s.deps.Notifier.Alert(failureMessage(err, "Login failed"))
		return err
	}

	s.deps.Sessions.Begin(result.UserID, creds.Email, result.Token)
	s.log.Info("login successful", zap.String("email", emailHash), zap.Int("user_id", result.UserID))

	s.deps.Notifier.Alert("Login successful!")
	s.deps.Navigator.Navigate(navigation.Home)
	return nil
}

// OpenRegistration shows the registration screen.
func (s *LoginScreen) OpenRegistration() {
	s.deps.Navigator.Navigate(navigation.Register)
}
