// Package opener hands product links to an external handler.
package opener

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
)

// Opener opens a URL outside the client.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// System opens URLs with the platform's default handler.
type System struct{}

func (System) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	// Not bound to ctx; the launched handler outlives the screen.
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("error opening %s: %w", url, err)
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

// Recorder keeps the URLs it was asked to open.
type Recorder struct {
	mu   sync.Mutex
	urls []string
}

func (r *Recorder) Open(_ context.Context, url string) error {
	r.mu.Lock()
	r.urls = append(r.urls, url)
	r.mu.Unlock()
	return nil
}

// URLs returns every URL opened so far.
func (r *Recorder) URLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.urls...)
}

// Drain returns and forgets the URLs opened so far.
func (r *Recorder) Drain() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	urls := r.urls
	r.urls = nil
	return urls
}
