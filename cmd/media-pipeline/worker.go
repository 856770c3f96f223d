package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"media-pipeline/internal/common/camunda"
	"media-pipeline/internal/common/config"
	"media-pipeline/internal/pipeline/router"
	processmedia "media-pipeline/internal/workers/media/process-media"
)

func newWorkerCommand(configPath *string) *cobra.Command {
	var healthAddr string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the process-media Zeebe job worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.cfg.ValidateWorker(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client, err := camunda.Connect(ctx, a.cfg.Camunda, camunda.DefaultRetryConfig, a.log)
			if err != nil {
				return err
			}
			defer func() {
				if err := client.Close(); err != nil {
					a.log.Error("error closing zeebe client", map[string]interface{}{"error": err.Error()})
				}
			}()

			handler, err := processmedia.NewHandler(processmedia.HandlerOptions{
				Config:        processmedia.ConfigFromAppConfig(a.cfg),
				Processor:     a.newRouter(router.Options{Output: router.OutputFile, Intent: router.IntentExpose}),
				Observability: a.obs,
				Logger:        a.log,
			})
			if err != nil {
				return err
			}

			w := camunda.StartWorker(client.GetClient(), processmedia.TaskType,
				config.GetWorkerConfig(a.cfg, processmedia.TaskType), handler.Handle, a.log)

			health := &http.Server{
				Addr:              healthAddr,
				Handler:           healthMux(client),
				ReadHeaderTimeout: 5 * time.Second,
			}
			go func() {
				a.log.Info("health/metrics server listening", map[string]interface{}{"addr": healthAddr})
				if err := health.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Error("health/metrics server failed", map[string]interface{}{"error": err.Error()})
				}
			}()

			<-ctx.Done()
			a.log.Info("shutdown signal received, stopping worker", nil)

			if w != nil {
				w.Close()
				w.AwaitClose()
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := health.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("health/metrics server shutdown failed", map[string]interface{}{"error": err.Error()})
			}

			a.log.Info("worker stopped gracefully", nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&healthAddr, "health-addr", ":8080", "health and metrics listen address")
	return cmd
}

func healthMux(client *camunda.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if err := client.HealthCheck(r.Context()); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
