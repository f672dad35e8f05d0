package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"footsize-client/pkg/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the screens over HTTP",
		Long:  "Serve one app instance over HTTP so another frontend can drive the screens. Listens on serve.addr.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfg.LogLevel == "debug" {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}

			handlers, err := api.NewHandlers(rt.deps(cmd.OutOrStdout()))
			if err != nil {
				return err
			}
			defer func() {
				if err := handlers.Close(); err != nil {
					rt.log.Warn("error cleaning up uploads", zap.Error(err))
				}
			}()

			srv := &http.Server{
				Addr:              rt.cfg.ServeAddr,
				Handler:           api.NewRouter(handlers, rt.log),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, rt.log)
		},
	}
}

// serve runs srv until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("error starting server: %w", err)
	case <-ctx.Done():
	}

	log.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	return nil
}
