package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/conorfennell/iquiz/internal/importer"
	"github.com/conorfennell/iquiz/internal/web"
)

const shutdownTimeout = 10 * time.Second

func (a *application) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve decks and reviews over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.store()
			if err != nil {
				return err
			}
			imp := importer.New(db,
				importer.WithReposDir(a.cfg.Import.ReposDir),
				importer.WithPattern(a.cfg.Import.Pattern),
				importer.WithLogger(a.logger),
			)
			server := &http.Server{
				Addr:              a.cfg.Server.Addr,
				Handler:           web.NewServer(db, a.reviewer(db), imp, web.WithLogger(a.logger), web.WithClock(a.now)),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "addr", server.Addr)
				fmt.Fprintf(cmd.OutOrStdout(), "Listening on http://%s\n", server.Addr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-cmd.Context().Done():
			}

			a.logger.Info("shutting down server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("addr", "", "Address to listen on")
	cmd.Flags().String("repos-dir", "", "Directory git sources are cloned into")
	return cmd
}
