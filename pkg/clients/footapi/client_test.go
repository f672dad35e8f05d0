package footapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"footsize-client/pkg/models"
	"footsize-client/pkg/session"
)

func newBackend(t *testing.T, register func(r *gin.Engine)) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newBackend(t, func(r *gin.Engine) {
		r.GET("/", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "API is running"})
		})
	})

	msg, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "API is running", msg)
}

func TestLogin(t *testing.T) {
	var got models.Credentials
	var authHeader, requestID string
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/login", func(c *gin.Context) {
			assert.NoError(t, c.ShouldBindJSON(&got))
			authHeader = c.GetHeader("Authorization")
			requestID = c.GetHeader("X-Request-ID")
			if got.Password != "right" {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user_id": 42})
		})
	})
	client := NewClient(srv.URL + "/")

	res, err := client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "right"})
	require.NoError(t, err)
	assert.Equal(t, 42, res.UserID)
	assert.Equal(t, "a@b.c", got.Email)
	assert.Empty(t, authHeader)
	assert.Len(t, requestID, 36)

	_, err = client.Login(context.Background(), models.Credentials{Email: "a@b.c", Password: "wrong"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Invalid credentials", msg)
}

func TestLoginAcceptsAnyBodyOn2xx(t *testing.T) {
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/login", func(c *gin.Context) {
			c.String(http.StatusOK, "welcome")
		})
	})

	res, err := NewClient(srv.URL).Login(context.Background(), models.Credentials{})
	require.NoError(t, err)
	assert.Zero(t, res.UserID)
}

func TestBearerTokenFromSession(t *testing.T) {
	var authHeader string
	srv := newBackend(t, func(r *gin.Engine) {
		r.PUT("/edit_profile", func(c *gin.Context) {
			authHeader = c.GetHeader("Authorization")
			c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
		})
	})

	ctx := session.NewContext(context.Background(), session.Session{UserID: 1, Token: "abc"})
	require.NoError(t, NewClient(srv.URL).EditProfile(ctx, models.ProfileUpdate{UserID: 1}))
	assert.Equal(t, "Bearer abc", authHeader)
}

func TestEditProfile(t *testing.T) {
	var got map[string]any
	var method string
	srv := newBackend(t, func(r *gin.Engine) {
		r.PUT("/edit_profile", func(c *gin.Context) {
			method = c.Request.Method
			assert.NoError(t, c.ShouldBindJSON(&got))
			c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
		})
	})

	err := NewClient(srv.URL).EditProfile(context.Background(), models.ProfileUpdate{
		UserID: 1, Name: "Ann", Email: "ann@x.io", Phone: "555",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, map[string]any{"user_id": float64(1), "name": "Ann", "email": "ann@x.io", "phone": "555"}, got)
}

func TestRegisterFailureWithoutJSON(t *testing.T) {
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/register", func(c *gin.Context) {
			c.String(http.StatusInternalServerError, "boom")
		})
	})

	err := NewClient(srv.URL).Register(context.Background(), models.Credentials{Email: "a", Password: "b"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	_, ok := ServerMessage(err)
	assert.False(t, ok)
}

func TestUploadFootImage(t *testing.T) {
	var filename, partType, content string
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			fh, err := c.FormFile("image")
			if !assert.NoError(t, err) {
				return
			}
			filename = fh.Filename
			partType = fh.Header.Get("Content-Type")
			f, err := fh.Open()
			if !assert.NoError(t, err) {
				return
			}
			defer f.Close()
			b, _ := io.ReadAll(f)
			content = string(b)
			c.JSON(http.StatusOK, gin.H{"foot_size_cm": 26.5, "foot_height": 812, "image_path": "/static/uploads/foot.jpg"})
		})
	})

	res, err := NewClient(srv.URL).UploadFootImage(context.Background(), strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, models.FootSize(26.5), res.FootSizeCM)
	assert.Equal(t, float64(812), res.FootHeight)
	assert.Equal(t, "foot.jpg", filename)
	assert.Equal(t, "image/jpeg", partType)
	assert.Equal(t, "jpeg-bytes", content)
}

func TestUploadFootImageErrors(t *testing.T) {
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Foot could not be detected. Try again with a clearer image."})
		})
	})

	_, err := NewClient(srv.URL).UploadFootImage(context.Background(), strings.NewReader("x"))
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Foot could not be detected. Try again with a clearer image.", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnexpectedContent)

	gateway := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			c.Data(http.StatusBadGateway, "text/html", []byte("<html>bad gateway</html>"))
		})
	})

	_, err = NewClient(gateway.URL).UploadFootImage(context.Background(), strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnexpectedContent)
}

func TestUploadNonJSON(t *testing.T) {
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/upload", func(c *gin.Context) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte("<html>oops</html>"))
		})
	})

	_, err := NewClient(srv.URL).UploadFootImage(context.Background(), strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnexpectedContent)
	var cErr *ContentError
	require.ErrorAs(t, err, &cErr)
	assert.Equal(t, "<html>oops</html>", string(cErr.Body))
}

func TestGetProductURL(t *testing.T) {
	var got map[string]any
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/get_url", func(c *gin.Context) {
			assert.NoError(t, c.ShouldBindJSON(&got))
			if got["gender"] == "female" {
				c.JSON(http.StatusNotFound, gin.H{"error": "Platform or gender file not found"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": "https://example.com/shoe"})
		})
	})
	client := NewClient(srv.URL)

	url, err := client.GetProductURL(context.Background(), models.ProductLinkRequest{
		Platform: "amazon", Gender: models.GenderMale, FootSizeCM: 26.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/shoe", url)
	assert.Equal(t, map[string]any{"platform": "amazon", "gender": "male", "foot_size_cm": 26.5}, got)

	_, err = client.GetProductURL(context.Background(), models.ProductLinkRequest{
		Platform: "amazon", Gender: models.GenderFemale, FootSizeCM: 26.5,
	})
	msg, ok := ServerMessage(err)
	assert.True(t, ok)
	assert.Equal(t, "Platform or gender file not found", msg)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	origin := srv.URL
	srv.Close()

	_, err := NewClient(origin).Login(context.Background(), models.Credentials{})
	assert.True(t, IsTransport(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := newBackend(t, func(r *gin.Engine) {
		r.POST("/register", func(c *gin.Context) {
			select {
			case <-release:
			case <-c.Request.Context().Done():
			}
			c.Status(http.StatusOK)
		})
	})
	defer close(release)

	err := NewClient(srv.URL, WithTimeout(50*time.Millisecond)).Register(context.Background(), models.Credentials{})
	require.True(t, IsTransport(err))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
