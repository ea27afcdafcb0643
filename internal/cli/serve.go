package cli

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/api"
	"github.com/matzehuels/licensetower/pkg/errors"
)

const shutdownTimeout = 10 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve scans and license lookups over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			s, err := c.loadSettings(absPath("."))
			if err != nil {
				return err
			}
			scanner, backend, err := c.newScanner(ctx, s)
			if err != nil {
				return err
			}
			defer backend.Close()

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.New(scanner, nil, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			logger.Info("listening", "addr", addr)

			select {
			case err := <-errc:
				return errors.Wrap(errors.ErrCodeNetwork, err, "serve %s", addr)
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger.Info("shutting down")
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
