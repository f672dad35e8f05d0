package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"footsize-client/pkg/clients/footapi"
	"footsize-client/pkg/media"
	"footsize-client/pkg/models"
	"footsize-client/pkg/navigation"
)

// Texts shown in place of the foot size.
const (
	SizeNotMeasured        = "Not measured"
	SizePending            = "Size calculation pending..."
	SizeDetectionFailed    = "Size detection failed"
	SizeUnexpectedResponse = "Unexpected response from server"
	SizeNetworkError       = "Network error occurred"
)

const (
	msgMeasureFirst   = "Please upload image and predict foot size first."
	msgProductMissing = "Product not found"
	msgProductError   = "Error fetching product URL."
	msgSelectImage    = "Please select a foot image first."
	msgNotAnImage     = "The selected file is not an image."
	msgImageUnusable  = "Could not open the selected image."
	msgLinkNotOpened  = "Could not open the product link."
)

// HomeState is where the home screen is in the measure-then-shop flow.
type HomeState int

const (
	StateIdle HomeState = iota
	StateImageSelected
	StateMeasuring
	StateMeasured
	StateFailed
	StateLookingUp
)

func (s HomeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateImageSelected:
		return "image_selected"
	case StateMeasuring:
		return "measuring"
	case StateMeasured:
		return "measured"
	case StateFailed:
		return "failed"
	case StateLookingUp:
		return "looking_up"
	}
	return fmt.Sprintf("HomeState(%d)", int(s))
}

// Busy reports whether a backend call is in flight.
func (s HomeState) Busy() bool {
	return s == StateMeasuring || s == StateLookingUp
}

// MenuItem is an entry of the profile menu.
type MenuItem string

const (
	MenuHome        MenuItem = "home"
	MenuEditProfile MenuItem = "edit_profile"
	MenuLogout      MenuItem = "logout"
)

// ParseMenuItem accepts the menu item names.
func ParseMenuItem(s string) (MenuItem, error) {
	switch MenuItem(s) {
	case MenuHome, MenuEditProfile, MenuLogout:
		return MenuItem(s), nil
	}
	return "", fmt.Errorf("%w: menu item %q", ErrUnknownInput, s)
}

// HomeSnapshot is a read-only view of the home screen.
type HomeSnapshot struct {
	State               string            `json:"state"`
	Busy                bool              `json:"busy"`
	ImageURI            string            `json:"image_uri,omitempty"`
	FootSize            string            `json:"foot_size"`
	FootSizeCM          float64           `json:"foot_size_cm,omitempty"`
	Gender              models.Gender     `json:"gender"`
	Genders             []models.Gender   `json:"genders"`
	ShowRecommendations bool              `json:"show_recommendations"`
	Platforms           []models.Platform `json:"platforms,omitempty"`
	MenuVisible         bool              `json:"menu_visible"`
	PickerVisible       bool              `json:"picker_visible"`
}

// HomeScreen holds the state of one mounted home screen. Every backend call it
// makes is bound to the screen's lifetime: after Close, in-flight calls are
// cancelled and their results are dropped.
type HomeScreen struct {
	deps Dependencies
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu                  sync.Mutex
	closed              bool
	state               HomeState
	image               *media.Image
	display             string
	size                models.FootSize
	measurement         *models.MeasurementResult
	gender              models.Gender
	showRecommendations bool
	menuVisible         bool
	pickerVisible       bool
}

// NewHomeScreen creates a home screen with nothing measured yet.
func NewHomeScreen(deps Dependencies) *HomeScreen {
	deps = deps.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	gender, err := models.ParseGender(deps.Config.DefaultGender)
	if err != nil {
		gender = models.GenderMale
	}

	return &HomeScreen{
		deps:    deps,
		log:     deps.Logger.Named("home"),
		ctx:     ctx,
		cancel:  cancel,
		state:   StateIdle,
		display: SizeNotMeasured,
		gender:  gender,
	}
}

// bind derives a context that ends with either ctx or the screen.
func (h *HomeScreen) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	opCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(h.ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// Close cancels in-flight calls. Later calls return ErrClosed.
func (h *HomeScreen) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
	h.cancel()
}

// Snapshot returns the current state for rendering.
func (h *HomeScreen) Snapshot() HomeSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotLocked()
}

func (h *HomeScreen) snapshotLocked() HomeSnapshot {
	snap := HomeSnapshot{
		State:               h.state.String(),
		Busy:                h.state.Busy(),
		FootSize:            h.display,
		Gender:              h.gender,
		Genders:             models.Genders,
		ShowRecommendations: h.showRecommendations,
		MenuVisible:         h.menuVisible,
		PickerVisible:       h.pickerVisible,
	}
	if h.image != nil {
		snap.ImageURI = h.image.URI
	}
	if h.state == StateMeasured || h.state == StateLookingUp {
		snap.FootSizeCM = float64(h.size)
	}
	if h.showRecommendations {
		snap.Platforms = models.Platforms
	}
	return snap
}

// Measurement returns the last successful upload result, if any.
func (h *HomeScreen) Measurement() *models.MeasurementResult {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.measurement
}

// OpenPicker shows the camera/gallery choice.
func (h *HomeScreen) OpenPicker() {
	h.mu.Lock()
	h.pickerVisible = true
	h.mu.Unlock()
}

// ClosePicker hides the camera/gallery choice.
func (h *HomeScreen) ClosePicker() {
	h.mu.Lock()
	h.pickerVisible = false
	h.mu.Unlock()
}

// SelectImage picks an image from source. A denied permission, a cancelled
// pick or an unusable file leave the measured state untouched.
func (h *HomeScreen) SelectImage(ctx context.Context, source media.Source, path string) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrClosed
	}
	if h.state.Busy() {
		h.mu.Unlock()
		return ErrBusy
	}
	h.pickerVisible = false
	h.mu.Unlock()

	opCtx, done := h.bind(ctx)
	defer done()

	img, err := h.deps.Picker.Pick(opCtx, source, path)
	switch {
	case errors.Is(err, media.ErrPermissionDenied):
		h.deps.Notifier.Alert(source.DeniedMessage())
		return err
	case errors.Is(err, media.ErrNotAnImage):
		h.deps.Notifier.Alert(msgNotAnImage)
		return err
	case err != nil:
		h.log.Error("image pick failed", zap.String("source", string(source)), zap.Error(err))
		h.deps.Notifier.Alert(msgImageUnusable)
		return err
	case img == nil:
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	if h.state.Busy() {
		return ErrBusy
	}
	h.image = img
	h.state = StateImageSelected
	h.display = SizePending
	h.size = 0
	h.measurement = nil
	h.showRecommendations = false

	h.log.Debug("image selected", zap.String("uri", img.URI), zap.String("mime", img.MIME))
	return nil
}

// Measure uploads the selected image and records the estimated size. Backend
// failures end in StateFailed with a display text and are not returned; the
// user may upload again. The returned error covers only calls that could not
// start and a screen closed mid-flight.
func (h *HomeScreen) Measure(ctx context.Context) (HomeSnapshot, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return HomeSnapshot{}, ErrClosed
	}
	if h.state.Busy() {
		snap := h.snapshotLocked()
		h.mu.Unlock()
		return snap, ErrBusy
	}
	if h.image == nil {
		snap := h.snapshotLocked()
		h.mu.Unlock()
		h.deps.Notifier.Alert(msgSelectImage)
		return snap, ErrNoImage
	}
	img := *h.image
	prev := h.state
	h.state = StateMeasuring
	h.mu.Unlock()

	opCtx, done := h.bind(ctx)
	defer done()

	f, err := img.Open()
	if err != nil {
		h.log.Error("image open failed", zap.String("path", img.Path), zap.Error(err))
		h.deps.Notifier.Alert(msgImageUnusable)
		h.mu.Lock()
		if !h.closed {
			h.state = prev
		}
		snap := h.snapshotLocked()
		h.mu.Unlock()
		return snap, fmt.Errorf("error opening image: %w", err)
	}
	defer f.Close()

	result, err := h.deps.Client.UploadFootImage(h.deps.Sessions.Attach(opCtx), f)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		h.log.Debug("measurement dropped, screen closed")
		return HomeSnapshot{}, ErrClosed
	}
	h.applyMeasurement(result, err)
	return h.snapshotLocked(), nil
}

func (h *HomeScreen) applyMeasurement(result *models.MeasurementResult, err error) {
	var apiErr *footapi.APIError
	var contentErr *footapi.ContentError

	switch {
	case err == nil && result != nil && result.FootSizeCM > 0:
		h.state = StateMeasured
		h.size = result.FootSizeCM
		h.measurement = result
		h.display = result.FootSizeCM.String()
		h.showRecommendations = true
		h.log.Info("foot measured", zap.Float64("foot_size_cm", float64(result.FootSizeCM)))
		return
	case err == nil:
		h.display = SizeDetectionFailed
		h.log.Error("backend error", zap.String("reason", "no foot_size_cm in response"))
	case errors.As(err, &apiErr):
		h.display = SizeDetectionFailed
		h.log.Error("backend error", zap.Int("status", apiErr.StatusCode), zap.ByteString("body", apiErr.Body))
	case errors.As(err, &contentErr):
		h.display = SizeUnexpectedResponse
		h.log.Error("unexpected response (not JSON)", zap.String("content_type", contentErr.ContentType), zap.ByteString("body", contentErr.Body))
	default:
		h.display = SizeNetworkError
		h.log.Error("upload failed", zap.Error(err))
	}

	h.state = StateFailed
	h.size = 0
	h.measurement = nil
	h.showRecommendations = false
}

// SetGender changes the gender used for product lookups.
func (h *HomeScreen) SetGender(g models.Gender) error {
	g, err := models.ParseGender(string(g))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownInput, err)
	}
	h.mu.Lock()
	h.gender = g
	h.mu.Unlock()
	return nil
}

// ShopLink asks the backend for a product matching the measured size and the
// selected gender on platform, and opens it. It is refused locally until a
// size has been measured.
func (h *HomeScreen) ShopLink(ctx context.Context, platform models.Platform) (string, error) {
	platform, err := models.ParsePlatform(string(platform))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknownInput, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrClosed
	}
	if h.state.Busy() {
		h.mu.Unlock()
		return "", ErrBusy
	}
	if h.state != StateMeasured {
		h.mu.Unlock()
		h.deps.Notifier.Alert(msgMeasureFirst)
		return "", ErrNotMeasured
	}
	req := models.ProductLinkRequest{
		Platform:   platform.Wire(),
		Gender:     h.gender,
		FootSizeCM: float64(h.size),
	}
	h.state = StateLookingUp
	h.mu.Unlock()

	opCtx, done := h.bind(ctx)
	defer done()

	url, err := h.deps.Client.GetProductURL(h.deps.Sessions.Attach(opCtx), req)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return "", ErrClosed
	}
	h.state = StateMeasured
	h.mu.Unlock()

	if err != nil {
		var apiErr *footapi.APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = msgProductMissing
			}
			h.log.Info("product lookup rejected", zap.String("platform", req.Platform), zap.Int("status", apiErr.StatusCode))
			h.deps.Notifier.Alert(msg)
		} else {
			h.log.Error("error fetching product URL", zap.String("platform", req.Platform), zap.Error(err))
			h.deps.Notifier.Alert(msgProductError)
		}
		return "", err
	}

	if err := h.deps.Opener.Open(opCtx, url); err != nil {
		h.log.Error("error opening product URL", zap.String("url", url), zap.Error(err))
		h.deps.Notifier.Alert(msgLinkNotOpened)
		return url, err
	}
	h.log.Info("product link opened", zap.String("platform", req.Platform), zap.String("url", url))
	return url, nil
}

// OpenMenu shows the profile menu.
func (h *HomeScreen) OpenMenu() {
	h.mu.Lock()
	h.menuVisible = true
	h.mu.Unlock()
}

// CloseMenu hides the profile menu.
func (h *HomeScreen) CloseMenu() {
	h.mu.Lock()
	h.menuVisible = false
	h.mu.Unlock()
}

// SelectMenu closes the menu and acts on item. Logout ends the session; the
// navigation that follows unmounts this screen.
func (h *HomeScreen) SelectMenu(item MenuItem) error {
	if _, err := ParseMenuItem(string(item)); err != nil {
		return err
	}
	h.CloseMenu()

	switch item {
	case MenuEditProfile:
		h.deps.Navigator.Navigate(navigation.EditProfile)
	case MenuLogout:
		h.deps.Sessions.Clear()
		h.log.Info("logged out")
		h.deps.Navigator.Navigate(navigation.Login)
	}
	return nil
}
