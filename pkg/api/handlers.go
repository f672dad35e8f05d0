package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"footsize-client/pkg/clients/footapi"
	"footsize-client/pkg/media"
	"footsize-client/pkg/models"
	"footsize-client/pkg/navigation"
	"footsize-client/pkg/opener"
	"footsize-client/pkg/services"
)

// Handlers drives one App over HTTP. Screen calls are serialized so the
// alerts and opened links in a response belong to the request that caused
// them.
type Handlers struct {
	app    *services.App
	client footapi.Client
	alerts *services.AlertLog
	opened *opener.Recorder
	log    *zap.Logger

	uploadDir string
	mu        sync.Mutex
}

// ScreenResponse is returned by every screen endpoint.
type ScreenResponse struct {
	Route   navigation.Route       `json:"route"`
	Title   string                 `json:"title"`
	Alerts  []string               `json:"alerts"`
	Home    *services.HomeSnapshot `json:"home,omitempty"`
	OpenURL string                 `json:"open_url,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

type openRequest struct {
	Route string `json:"route" binding:"required,oneof=Login Register"`
}

type pickerRequest struct {
	Visible bool `json:"visible"`
}

type imageRequest struct {
	Source string `form:"source" json:"source" binding:"required,oneof=camera gallery"`
	Path   string `form:"path" json:"path"`
}

var errHostPath = errors.New("host paths are not accepted, upload the image in the \"image\" field")

type genderRequest struct {
	Gender string `json:"gender" binding:"required,oneof=male female"`
}

type menuRequest struct {
	Item string `json:"item" binding:"omitempty,oneof=home edit_profile logout"`
}

// NewHandlers creates the handlers and the App they drive. deps.Notifier and
// deps.Opener are replaced: alerts and links are returned to the caller.
func NewHandlers(deps services.Dependencies) (*Handlers, error) {
	dir, err := os.MkdirTemp("", "footsize-uploads-")
	if err != nil {
		return nil, fmt.Errorf("error creating upload dir: %w", err)
	}

	h := &Handlers{
		client:    deps.Client,
		alerts:    &services.AlertLog{},
		opened:    &opener.Recorder{},
		log:       deps.Logger,
		uploadDir: dir,
	}
	if h.log == nil {
		h.log = zap.NewNop()
	}
	h.log = h.log.Named("api")

	deps.Notifier = h.alerts
	deps.Opener = h.opened
	h.app = services.NewApp(deps)
	return h, nil
}

// App returns the driven app.
func (h *Handlers) App() *services.App {
	return h.app
}

// Close releases the home screen and removes uploaded images.
func (h *Handlers) Close() error {
	h.app.Close()
	return os.RemoveAll(h.uploadDir)
}

// Routes adds the endpoints to r.
func (h *Handlers) Routes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	s := r.Group("/screens")
	s.GET("/current", h.Current)
	s.POST("/open", h.Open)
	s.POST("/back", h.Back)
	s.POST("/login", h.Login)
	s.POST("/register", h.Register)
	s.PUT("/profile", h.SaveProfile)

	home := s.Group("/home")
	home.GET("", h.Home)
	home.POST("/picker", h.Picker)
	home.POST("/image", h.SelectImage)
	home.POST("/measure", h.Measure)
	home.PUT("/gender", h.SetGender)
	home.POST("/shop/:platform", h.Shop)
	home.POST("/menu", h.Menu)
}

// HealthCheck reports whether the measurement backend answers.
func (h *Handlers) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	msg, err := h.client.Health(ctx)
	if err != nil {
		h.log.Warn("backend health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "backend": msg})
}

// Current shows the screen on top of the stack.
func (h *Handlers) Current(c *gin.Context) {
	h.run(c, func() error { return nil })
}

// Open follows the link between the login and registration screens.
func (h *Handlers) Open(c *gin.Context) {
	var req openRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	h.run(c, func() error {
		switch {
		case h.app.Route() == navigation.Login && req.Route == string(navigation.Register):
			h.app.Login.OpenRegistration()
		case h.app.Route() == navigation.Register && req.Route == string(navigation.Login):
			h.app.Register.OpenLogin()
		default:
			return fmt.Errorf("%w: no link to %s from %s", services.ErrNotMounted, req.Route, h.app.Route())
		}
		return nil
	})
}

// Back leaves the current screen. Edit profile is cancelled without saving.
func (h *Handlers) Back(c *gin.Context) {
	h.run(c, func() error {
		if h.app.Route() == navigation.EditProfile {
			h.app.Profile.Cancel()
			return nil
		}
		if !h.app.GoBack() {
			return fmt.Errorf("%w: %s is the first screen", services.ErrNotMounted, h.app.Route())
		}
		return nil
	})
}

// Login submits the login form.
func (h *Handlers) Login(c *gin.Context) {
	var creds models.Credentials
	if !h.bind(c, c.ShouldBindJSON, &creds) {
		return
	}
	h.on(c, navigation.Login, func(ctx context.Context) error {
		return h.app.Login.Submit(ctx, creds)
	})
}

// Register submits the registration form.
func (h *Handlers) Register(c *gin.Context) {
	var form models.RegistrationForm
	if !h.bind(c, c.ShouldBindJSON, &form) {
		return
	}
	h.on(c, navigation.Register, func(ctx context.Context) error {
		return h.app.Register.Submit(ctx, form)
	})
}

// SaveProfile submits the edit profile form.
func (h *Handlers) SaveProfile(c *gin.Context) {
	var form models.ProfileForm
	if !h.bind(c, c.ShouldBindJSON, &form) {
		return
	}
	h.on(c, navigation.EditProfile, func(ctx context.Context) error {
		return h.app.Profile.Save(ctx, form)
	})
}

// Home returns the home screen state.
func (h *Handlers) Home(c *gin.Context) {
	h.onHome(c, func(context.Context, *services.HomeScreen) error { return nil })
}

// Picker shows or hides the camera/gallery choice.
func (h *Handlers) Picker(c *gin.Context) {
	var req pickerRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	h.onHome(c, func(_ context.Context, home *services.HomeScreen) error {
		if req.Visible {
			home.OpenPicker()
		} else {
			home.ClosePicker()
		}
		return nil
	})
}

// SelectImage takes the image as a multipart upload in the "image" field. A
// request without a file is a cancelled pick. Paths on this host are refused
// so callers can only measure images they send.
func (h *Handlers) SelectImage(c *gin.Context) {
	var req imageRequest
	if !h.bind(c, c.ShouldBind, &req) {
		return
	}
	if req.Path != "" {
		h.log.Warn("image path refused", zap.String("path", req.Path))
		c.JSON(http.StatusBadRequest, gin.H{"error": errHostPath.Error()})
		return
	}

	if file, err := c.FormFile(footapi.UploadField); err == nil {
		dst := filepath.Join(h.uploadDir, uuid.NewString()+filepath.Ext(file.Filename))
		if err := c.SaveUploadedFile(file, dst); err != nil {
			h.log.Error("error saving upload", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving image"})
			return
		}
		req.Path = dst
	}

	h.onHome(c, func(ctx context.Context, home *services.HomeScreen) error {
		return home.SelectImage(ctx, media.Source(req.Source), req.Path)
	})
}

// Measure uploads the selected image for measurement.
func (h *Handlers) Measure(c *gin.Context) {
	h.onHome(c, func(ctx context.Context, home *services.HomeScreen) error {
		_, err := home.Measure(ctx)
		return err
	})
}

// SetGender changes the gender used for product lookups.
func (h *Handlers) SetGender(c *gin.Context) {
	var req genderRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	h.onHome(c, func(_ context.Context, home *services.HomeScreen) error {
		return home.SetGender(models.Gender(req.Gender))
	})
}

// Shop looks up a product on the platform in the path.
func (h *Handlers) Shop(c *gin.Context) {
	platform := models.Platform(c.Param("platform"))
	h.onHome(c, func(ctx context.Context, home *services.HomeScreen) error {
		_, err := home.ShopLink(ctx, platform)
		return err
	})
}

// Menu opens the profile menu, or picks an item when one is given.
func (h *Handlers) Menu(c *gin.Context) {
	var req menuRequest
	if !h.bind(c, c.ShouldBindJSON, &req) {
		return
	}
	h.onHome(c, func(_ context.Context, home *services.HomeScreen) error {
		if req.Item == "" {
			home.OpenMenu()
			return nil
		}
		return home.SelectMenu(services.MenuItem(req.Item))
	})
}

// bind decodes the request into obj. An empty body leaves obj zero.
func (h *Handlers) bind(c *gin.Context, fn func(any) error, obj any) bool {
	if err := fn(obj); err != nil && !errors.Is(err, io.EOF) {
		h.log.Debug("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return false
	}
	return true
}

// on runs fn only while route is shown.
func (h *Handlers) on(c *gin.Context, route navigation.Route, fn func(context.Context) error) {
	h.run(c, func() error {
		if current := h.app.Route(); current != route {
			return fmt.Errorf("%w: %s is shown, not %s", services.ErrNotMounted, current, route)
		}
		return fn(c.Request.Context())
	})
}

func (h *Handlers) onHome(c *gin.Context, fn func(context.Context, *services.HomeScreen) error) {
	h.run(c, func() error {
		home, err := h.app.Home()
		if err != nil {
			return err
		}
		if h.app.Route() != navigation.Home {
			return fmt.Errorf("%w: %s is shown", services.ErrNotMounted, h.app.Route())
		}
		return fn(c.Request.Context(), home)
	})
}

func (h *Handlers) run(c *gin.Context, fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.alerts.Drain()
	h.opened.Drain()

	err := fn()

	resp := ScreenResponse{
		Route:  h.app.Route(),
		Alerts: h.alerts.Drain(),
	}
	resp.Title = resp.Route.Title()
	if resp.Alerts == nil {
		resp.Alerts = []string{}
	}
	if urls := h.opened.Drain(); len(urls) > 0 {
		resp.OpenURL = urls[len(urls)-1]
	}
	if home, herr := h.app.Home(); herr == nil && resp.Route == navigation.Home {
		snap := home.Snapshot()
		resp.Home = &snap
	}

	status := http.StatusOK
	if err != nil {
		status = statusFor(err)
		resp.Error = err.Error()
		h.log.Debug("screen action failed", zap.String("path", c.FullPath()), zap.Int("status", status), zap.Error(err))
	}
	c.JSON(status, resp)
}

func statusFor(err error) int {
	var apiErr *footapi.APIError
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrUnknownInput), errors.Is(err, media.ErrUnknownSource):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBusy),
		errors.Is(err, services.ErrNotMeasured),
		errors.Is(err, services.ErrNoImage),
		errors.Is(err, services.ErrNotMounted),
		errors.Is(err, services.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, media.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, media.ErrNotAnImage):
		return http.StatusUnsupportedMediaType
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return apiErr.StatusCode
		}
		if apiErr.StatusCode < 400 {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case footapi.IsTransport(err), errors.Is(err, footapi.ErrUnexpectedContent):
		return http.StatusBadGateway
	case errors.Is(err, os.ErrNotExist):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
