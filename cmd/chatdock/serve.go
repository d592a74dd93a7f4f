package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/chatdock/chatdock/internal/devserver"
	"github.com/chatdock/chatdock/internal/view"
	"github.com/chatdock/chatdock/internal/widget"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the widget script, demo page and optional built-in backend",
	RunE:  runServe,
}

var (
	flagAddr       string
	flagBackendURL string
	flagDataPath   string
	flagEnvFile    string
)

func init() {
	flags := serveCmd.Flags()
	flags.StringVar(&flagAddr, "addr", "", "listen address (default :8420)")
	flags.StringVar(&flagBackendURL, "backend-url", "", "backend base URL baked into served widgets when the embed omits one")
	flags.StringVar(&flagDataPath, "data-path", "", "directory for the built-in backend's PebbleDB store (enables /api and /console)")
	flags.StringVar(&flagEnvFile, "env-file", "", "optional .env file with CHATDOCK_* variables")
}

// serveEnv carries env-variable fallbacks; flags win over env.
type serveEnv struct {
	Addr       string `env:"CHATDOCK_ADDR" envDefault:":8420"`
	BackendURL string `env:"CHATDOCK_BACKEND_URL"`
	DataPath   string `env:"CHATDOCK_DATA_PATH"`
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagEnvFile != "" {
		if err := godotenv.Load(flagEnvFile); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}
	} else if err := godotenv.Load(); err == nil {
		log.Info().Msg("[serve] loaded .env")
	}

	var ec serveEnv
	if err := env.Parse(&ec); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	addr := firstNonEmpty(flagAddr, ec.Addr)
	backendURL := firstNonEmpty(flagBackendURL, ec.BackendURL)
	dataPath := firstNonEmpty(flagDataPath, ec.DataPath)

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/widget.js", func(w http.ResponseWriter, req *http.Request) {
		attrs := map[string]string{}
		for k, vs := range req.URL.Query() {
			if len(vs) > 0 {
				attrs[k] = vs[0]
			}
		}
		// embeds without an explicit backend get the server default; with a
		// built-in backend and no default that means same-origin
		if attrs["backend-url"] == "" {
			attrs["backend-url"] = backendURL
		}
		cfg := widget.ParseAttrs(attrs)
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		if err := view.WriteScript(w, cfg); err != nil {
			log.Warn().Err(err).Msg("[serve] render widget script")
		}
	})
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		src := "/widget.js"
		if req.URL.RawQuery != "" {
			src += "?" + req.URL.RawQuery
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := view.WriteDemo(w, src); err != nil {
			log.Warn().Err(err).Msg("[serve] render demo page")
		}
	})

	var backend *devserver.Server
	if dataPath != "" {
		var err error
		backend, err = devserver.New(dataPath, log.Logger)
		if err != nil {
			return fmt.Errorf("open built-in backend: %w", err)
		}
		r.Mount("/api", backend.API())
		r.Mount("/console", backend.Console())
		log.Info().Str("data_path", dataPath).Msg("[serve] built-in backend enabled")
	}

	httpSrv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second, IdleTimeout: 60 * time.Second}
	log.Info().Msgf("[serve] listening on %s", addr)
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("[serve] http error")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("[serve] shutting down...")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("[serve] http shutdown error")
	}
	if backend != nil {
		if err := backend.Close(); err != nil {
			log.Warn().Err(err).Msg("[serve] backend close error")
		}
	}
	log.Info().Msg("[serve] shutdown complete")
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
