package services

import (
	"errors"
	"io"

	"go.uber.org/zap"

	"footsize-client/pkg/clients/footapi"
	"footsize-client/pkg/config"
	"footsize-client/pkg/media"
	"footsize-client/pkg/navigation"
	"footsize-client/pkg/opener"
	"footsize-client/pkg/session"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrBusy         = errors.New("another request is in progress")
	ErrNotMeasured  = errors.New("foot size has not been measured")
	ErrNoImage      = errors.New("no image selected")
	ErrClosed       = errors.New("screen closed")
	ErrNotMounted   = errors.New("screen not mounted")
	ErrUnknownInput = errors.New("unknown selection")
)

const msgSomethingWrong = "Something went wrong. Please try again."

// Navigator moves between screens.
type Navigator interface {
	Navigate(r navigation.Route)
	GoBack() bool
}

// Dependencies are shared by every screen.
type Dependencies struct {
	Client    footapi.Client
	Sessions  *session.Store
	Navigator Navigator
	Notifier  Notifier
	Opener    opener.Opener
	Picker    *media.Picker
	Config    *config.Config
	Logger    *zap.Logger
}

func (d Dependencies) withDefaults() Dependencies {
	if d.Sessions == nil {
		d.Sessions = session.NewStore(0)
	}
	if d.Navigator == nil {
		d.Navigator = navigation.New(navigation.Login)
	}
	if d.Notifier == nil {
		d.Notifier = WriterNotifier{W: io.Discard}
	}
	if d.Opener == nil {
		d.Opener = opener.System{}
	}
	if d.Picker == nil {
		d.Picker = media.NewPicker(media.StaticPermissions{Camera: true, Gallery: true})
	}
	if d.Config == nil {
		d.Config = &config.Config{ProfileUserID: 1, DefaultGender: "male"}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// failureMessage picks the alert for a failed backend call: the server's own
// message when it sent one, the fallback for other server errors, and the
// generic text when the server could not be reached or understood.
func failureMessage(err error, fallback string) string {
	if msg, ok := footapi.ServerMessage(err); ok {
		return msg
	}
	var apiErr *footapi.APIError
	if errors.As(err, &apiErr) {
		return fallback
	}
	return msgSomethingWrong
}

// logFailure logs server rejections at info and everything else, which the
// user only sees as a generic message, at error.
func logFailure(log *zap.Logger, op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	var apiErr *footapi.APIError
	if errors.As(err, &apiErr) {
		log.Info(op+" rejected", append(fields, zap.Int("status", apiErr.StatusCode))...)
		return
	}
	log.Error(op+" failed", fields...)
}
