package services

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"footsize-client/pkg/models"
	"footsize-client/pkg/navigation"
	"footsize-client/pkg/utils"
)

var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// registrationMessages maps field and tag to the message shown to the user.
var registrationMessages = map[string]string{
	"email.required":           "Please enter an email address",
	"password.required":        "Please enter a password",
	"confirm_password.eqfield": "Passwords don't match!",
}

// validateRegistration returns the message for the first failing check, in
// field order, or "" when the form may be sent.
func validateRegistration(form models.RegistrationForm) string {
	err := formValidator.Struct(form)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	first := verrs[0]
	if msg, ok := registrationMessages[first.Field()+"."+first.Tag()]; ok {
		return msg
	}
	return first.Error()
}

// RegistrationScreen creates an account and returns to the login screen.
type RegistrationScreen struct {
	deps Dependencies
	log  *zap.Logger
}

// NewRegistrationScreen creates a registration screen
func NewRegistrationScreen(deps Dependencies) *RegistrationScreen {
	deps = deps.withDefaults()
	return &RegistrationScreen{deps: deps, log: deps.Logger.Named("register")}
}

// Submit checks the form locally and, when it passes, registers the trimmed
// email and password. A failed local check never reaches the network.
func (s *RegistrationScreen) Submit(ctx context.Context, form models.RegistrationForm) error {
	if msg := validateRegistration(form); msg != "" {
		s.deps.Notifier.Alert(msg)
		return fmt.Errorf("%w: %s", ErrValidation, msg)
	}

	creds := models.Credentials{
		Email:    strings.TrimSpace(form.Email),
		Password: strings.TrimSpace(form.Password),
	}
	emailHash := utils.RedactEmail(creds.Email)

	if err := s.deps.Client.Register(ctx, creds); err != nil {
		logFailure(s.log, "registration", err, zap.String("email", emailHash))
		s.deps.Notifier.Alert(failureMessage(err, "Registration failed"))
		return err
	}

	s.log.Info("registration successful", zap.String("email", emailHash))
	s.deps.Notifier.Alert("Registration successful!")
	s.deps.Navigator.Navigate(navigation.Login)
	return nil
}

// OpenLogin returns to the login screen without registering.
func (s *RegistrationScreen) OpenLogin() {
	s.deps.Navigator.Navigate(navigation.Login)
}
