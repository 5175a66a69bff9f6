package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/CageChen/fsclass/internal/config"
	"github.com/CageChen/fsclass/internal/handler"
	"github.com/CageChen/fsclass/internal/logging"
	"github.com/CageChen/fsclass/internal/watcher"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		port  int
		open  bool
		roots []string
	)

	cmd := &cobra.Command{
		Use:   "serve [DIR...]",
		Short: "Serve the classification API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("open") {
				cfg.Open = open
			}
			if opts.languages {
				cfg.Languages = true
			}
			for _, dir := range append(roots, args...) {
				if err := cfg.AddRoot(dir, "", ""); err != nil {
					return err
				}
			}

			log, err := logging.New(cfg.Logging())
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "port to listen on")
	cmd.Flags().BoolVar(&open, "open", false, "open the API root in a browser")
	cmd.Flags().StringSliceVarP(&roots, "root", "r", nil, "directory to serve (repeatable)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log logging.Logger) error {
	labeler, err := cfg.Labeler()
	if err != nil {
		return err
	}

	log.Info("fsclass server",
		"config", cfg.GetConfigFilePath(),
		"roots", len(cfg.Roots),
		"labels", labeler.Len(),
	)
	for i, r := range cfg.Roots {
		if r.GitRef != "" {
			log.Info("serving root", "index", i, "alias", r.Alias, "path", r.Path, "git_ref", r.GitRef)
		} else {
			log.Info("serving root", "index", i, "alias", r.Alias, "path", r.Path)
		}
	}

	ws := handler.NewWorkspace(cfg, labeler, log)
	wsHandler := handler.NewWSHandler(ws)

	if cfg.Watch {
		w, err := watcher.New(cfg.IsExcluded, log.With("component", "watcher"))
		if err != nil {
			log.Warn("failed to create file watcher", "error", err)
		} else {
			w.OnChange(wsHandler.OnFileChange)
			w.Start()
			defer func() { _ = w.Stop() }()
			ws.SetWatcher(w)
			log.Info("file watcher enabled")
		}
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(ws, wsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d/api/roots", cfg.Port)
	log.Info("server starting", "url", url)
	if cfg.Open {
		go openBrowser(url)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "windows":
		cmd = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		cmd = "open"
		args = []string{url}
	default: // linux, etc.
		cmd = "xdg-open"
		args = []string{url}
	}

	_ = exec.Command(cmd, args...).Start()
}
