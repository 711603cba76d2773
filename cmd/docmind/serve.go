package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docmind/internal/api"
	"github.com/dgallion1/docmind/internal/pipeline"
	"github.com/dgallion1/docmind/internal/store"
)

const cleanupInterval = 10 * time.Minute

func serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the upload API and viewer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(true)
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Port = port
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			st, err := store.Open(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			if mem, ok := st.(*store.MemoryStore); ok {
				go mem.RunCleanup(ctx, cleanupInterval)
			}

			gen := newGenerator(cfg, log)
			jobs := pipeline.NewJobStore(time.Hour)
			go func() {
				t := time.NewTicker(cleanupInterval)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-t.C:
						jobs.Cleanup()
					}
				}
			}()
			proc := pipeline.NewProcessor(gen, st, jobs, pipeline.Options{
				UploadDir:            cfg.UploadDir,
				MaxConcurrent:        cfg.MaxConcurrentGenerate,
				PDFFallbackPdftotext: cfg.PDFFallbackPdftotext,
			}, log)

			srv := api.NewServer(proc, st, gen, log, cfg)
			httpServer := &http.Server{
				Addr:         ":" + cfg.Port,
				Handler:      srv,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 5 * time.Minute,
				IdleTimeout:  60 * time.Second,
			}

			// Graceful shutdown.
			go func() {
				<-ctx.Done()
				log.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				httpServer.Shutdown(shutdownCtx)
			}()

			log.Info("starting docmind", "port", cfg.Port, "store", cfg.StoreBackend, "upload_dir", cfg.UploadDir)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides config)")
	return cmd
}
