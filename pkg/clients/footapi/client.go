package footapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"footsize-client/pkg/models"
	"footsize-client/pkg/session"
)

const (
	// UploadField is the multipart field the backend reads the image from.
	UploadField = "image"
	// UploadFilename and UploadContentType are fixed regardless of the picked file.
	UploadFilename    = "foot.jpg"
	UploadContentType = "image/jpeg"
)

// Client defines the interface for interacting with the foot-size backend
type Client interface {
	Health(ctx context.Context) (string, error)
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error)
	Register(ctx context.Context, creds models.Credentials) error
	EditProfile(ctx context.Context, update models.ProfileUpdate) error
	UploadFootImage(ctx context.Context, image io.Reader) (*models.MeasurementResult, error)
	GetProductURL(ctx context.Context, req models.ProductLinkRequest) (string, error)
}

type clientImpl struct {
	origin     string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.Logger
}

// Option customises a client.
type Option func(*clientImpl)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientImpl) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request. Zero leaves requests bounded only by their context.
func WithTimeout(d time.Duration) Option {
	return func(c *clientImpl) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(log *zap.Logger) Option {
	return func(c *clientImpl) {
		c.log = log
	}
}

// NewClient creates a new backend client for origin, e.g. http://192.168.1.10:5000.
func NewClient(origin string, opts ...Option) Client {
	c := &clientImpl{
		origin:     strings.TrimRight(origin, "/"),
		httpClient: &http.Client{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type response struct {
	status      int
	contentType string
	body        []byte
}

func (r *response) ok() bool {
	return r.status >= 200 && r.status < 300
}

func (r *response) isJSON() bool {
	return strings.Contains(strings.ToLower(r.contentType), "application/json")
}

// apiError decodes the common {"error": "..."} shape, ignoring bodies that are not JSON.
func (r *response) apiError() *APIError {
	var eb models.ErrorBody
	_ = json.Unmarshal(r.body, &eb)
	return &APIError{StatusCode: r.status, Message: eb.Error, Body: r.body}
}

func (c *clientImpl) do(ctx context.Context, method, path, contentType string, body io.Reader) (*response, error) {
	op := method + " " + path
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.origin+path, body)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if sess, ok := session.FromContext(ctx); ok && sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("error reading response: %w", err)}
	}

	c.log.Debug("backend call",
		zap.String("op", op),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &response{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        data,
	}, nil
}

func (c *clientImpl) doJSON(ctx context.Context, method, path string, payload any) (*response, error) {
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error creating payload: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(jsonPayload))
}

// Health calls GET / and returns the server's status message.
func (c *clientImpl) Health(ctx context.Context) (string, error) {
	resp, err := c.do(ctx, http.MethodGet, "/", "", nil)
	if err != nil {
		return "", err
	}
	if !resp.ok() {
		return "", resp.apiError()
	}

	var status struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(resp.body, &status); err != nil {
		return "", &ContentError{StatusCode: resp.status, ContentType: resp.contentType, Body: resp.body, Err: err}
	}
	return status.Message, nil
}

// Login accepts any 2xx. The body is decoded on a best-effort basis since the
// backend is free to omit it.
func (c *clientImpl) Login(ctx context.Context, creds models.Credentials) (*models.LoginResult, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/login", creds)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		return nil, resp.apiError()
	}

	result := &models.LoginResult{}
	if err := json.Unmarshal(resp.body, result); err != nil {
		c.log.Debug("login response body ignored", zap.Error(err))
		result = &models.LoginResult{}
	}
	return result, nil
}

func (c *clientImpl) Register(ctx context.Context, creds models.Credentials) error {
	resp, err := c.doJSON(ctx, http.MethodPost, "/register", creds)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.apiError()
	}
	return nil
}

func (c *clientImpl) EditProfile(ctx context.Context, update models.ProfileUpdate) error {
	resp, err := c.doJSON(ctx, http.MethodPut, "/edit_profile", update)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return resp.apiError()
	}
	return nil
}

// UploadFootImage posts image as multipart field "image" named foot.jpg.
// A non-JSON answer yields ErrUnexpectedContent whatever the status; a JSON
// answer outside 2xx yields *APIError.
func (c *clientImpl) UploadFootImage(ctx context.Context, image io.Reader) (*models.MeasurementResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, UploadField, UploadFilename))
	h.Set("Content-Type", UploadContentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("error creating form part: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("error reading image: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("error closing form: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/upload", w.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}
	if !resp.isJSON() {
		return nil, &ContentError{StatusCode: resp.status, ContentType: resp.contentType, Body: resp.body}
	}
	if !resp.ok() {
		return nil, resp.apiError()
	}

	result := &models.MeasurementResult{}
	if err := json.Unmarshal(resp.body, result); err != nil {
		return nil, &ContentError{StatusCode: resp.status, ContentType: resp.contentType, Body: resp.body, Err: err}
	}
	return result, nil
}

// GetProductURL resolves a product link. A 2xx answer without a url is
// reported as *APIError carrying whatever error text the body has.
func (c *clientImpl) GetProductURL(ctx context.Context, req models.ProductLinkRequest) (string, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, "/get_url", req)
	if err != nil {
		return "", err
	}

	var link struct {
		models.ProductLink
		models.ErrorBody
	}
	if err := json.Unmarshal(resp.body, &link); err != nil {
		return "", &ContentError{StatusCode: resp.status, ContentType: resp.contentType, Body: resp.body, Err: err}
	}
	if !resp.ok() || link.URL == "" {
		return "", &APIError{StatusCode: resp.status, Message: link.Error, Body: resp.body}
	}
	return link.URL, nil
}
