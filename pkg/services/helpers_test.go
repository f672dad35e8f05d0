package services

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"footsize-client/pkg/clients/footapi"
	"footsize-client/pkg/config"
	"footsize-client/pkg/media"
	"footsize-client/pkg/navigation"
	"footsize-client/pkg/opener"
	"footsize-client/pkg/session"
)

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00, 0x01, 0x01, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00}

// fakeBackend is a gin engine standing in for the measurement server. It
// counts requests per path, routed or not.
type fakeBackend struct {
	*gin.Engine
	srv *httptest.Server

	mu    sync.Mutex
	calls map[string]int
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &fakeBackend{Engine: gin.New(), calls: make(map[string]int)}
	b.Use(func(c *gin.Context) {
		b.mu.Lock()
		b.calls[c.Request.URL.Path]++
		b.mu.Unlock()
		c.Next()
	})
	b.srv = httptest.NewServer(b.Engine)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[path]
}

func (b *fakeBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		n += c
	}
	return n
}

type fixture struct {
	deps    Dependencies
	alerts  *AlertLog
	opened  *opener.Recorder
	nav     *navigation.Navigator
	session *session.Store
}

func newFixture(t *testing.T, client footapi.Client) *fixture {
	t.Helper()
	f := &fixture{
		alerts:  &AlertLog{},
		opened:  &opener.Recorder{},
		nav:     navigation.New(navigation.Login),
		session: session.NewStore(0),
	}
	f.deps = Dependencies{
		Client:    client,
		Sessions:  f.session,
		Navigator: f.nav,
		Notifier:  f.alerts,
		Opener:    f.opened,
		Picker:    media.NewPicker(media.StaticPermissions{Camera: false, Gallery: true}),
		Config:    &config.Config{ProfileUserID: 1, DefaultGender: "male"},
	}
	return f
}

func writeJPEG(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foot.jpg")
	require.NoError(t, os.WriteFile(path, jpegHeader, 0o600))
	return path
}
