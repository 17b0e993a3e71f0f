package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"amtrak-price-tracker/api"
	"amtrak-price-tracker/models"
	"amtrak-price-tracker/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs scheduled sweeps and the control API until interrupted.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		tracker := a.newTracker()
		st, err := a.settings.Get(ctx)
		if err != nil {
			return fmt.Errorf("failed to read settings: %w", err)
		}

		// ================== Scheduler ====================
		sched := scheduler.New(tracker, st.CheckInterval, a.logger)
		sched.Start(ctx)
		defer sched.Stop()

		go func() {
			err := a.settings.Watch(ctx, func(s models.Settings) {
				sched.SetInterval(s.CheckInterval)
			})
			if err != nil {
				a.logger.Warn("Settings file will not be watched: %v", err)
			}
		}()

		// ================== Control API ====================
		if !a.cfg.Debug {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := &http.Server{
			Addr:              a.cfg.HTTPAddr,
			Handler:           api.NewRouter(api.NewServer(a.trips, a.settings, sched, a.logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}
		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Control API listening on http://%s", a.cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case <-ctx.Done():
			a.logger.Info("Shutting down")
		case err := <-errCh:
			return fmt.Errorf("control API failed: %w", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
