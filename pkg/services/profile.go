package services

import (
	"context"

	"go.uber.org/zap"

	"footsize-client/pkg/models"
)

// EditProfileScreen updates the profile of the configured user.
type EditProfileScreen struct {
	deps Dependencies
	log  *zap.Logger
}

// NewEditProfileScreen creates an edit-profile screen
func NewEditProfileScreen(deps Dependencies) *EditProfileScreen {
	deps = deps.withDefaults()
	return &EditProfileScreen{deps: deps, log: deps.Logger.Named("profile")}
}

// Save sends the fields unvalidated together with the configured user id and
// goes back one screen on success.
func (s *EditProfileScreen) Save(ctx context.Context, form models.ProfileForm) error {
	update := models.ProfileUpdate{
		UserID: s.deps.Config.ProfileUserID,
		Name:   form.Name,
		Email:  form.Email,
		Phone:  form.Phone,
	}

	if err := s.deps.Client.EditProfile(s.deps.Sessions.Attach(ctx), update); err != nil {
		logFailure(s.log, "profile update", err, zap.Int("user_id", update.UserID))
		s.deps.Notifier.Alert(failureMessage(err, "Update failed"))
		return err
	}

	s.log.Info("profile updated", zap.Int("user_id", update.UserID))
	s.deps.Notifier.Alert("Profile updated!")
	s.deps.Navigator.GoBack()
	return nil
}

// Cancel leaves the screen without saving.
func (s *EditProfileScreen) Cancel() {
	s.deps.Navigator.GoBack()
}
