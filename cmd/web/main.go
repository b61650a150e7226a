// cmd/web/main.go
//
// complaintdesk – HTTP entry point.
//
// Boot sequence
// -------------
//
//  1. Load env vars (system-wide file → .env fallback).
//
//  2. Bootstrap console logger, then dial Vault when the configuration
//     holds `vault:` references.
//
//  3. Load configuration (defaults → conf/global.yaml → COMPLAINT_ env).
//
//  4. Start the daily rotating file logger (tees to console in a TTY).
//
//  5. Load form definitions: embedded defaults, then the operator
//     directory, optionally watched for changes.
//
//  6. Build the page-token signer, the session store, and the router.
//
//  7. Serve until SIGINT/SIGTERM, then shut down gracefully.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/yanizio/complaintdesk/internal/backend"
	"github.com/yanizio/complaintdesk/internal/config"
	"github.com/yanizio/complaintdesk/internal/form"
	"github.com/yanizio/complaintdesk/internal/logger"
	"github.com/yanizio/complaintdesk/internal/metrics"
	"github.com/yanizio/complaintdesk/internal/requestinfo"
	"github.com/yanizio/complaintdesk/internal/server"
	"github.com/yanizio/complaintdesk/internal/session"
	"github.com/yanizio/complaintdesk/internal/vault"
	"github.com/yanizio/complaintdesk/internal/web"
)

const serverEnvPath = "/usr/local/etc/complaintdesk/global.env"

// loadEnv prefers the system-wide env file; on dev it falls back to .env.
func loadEnv() {
	if _, err := os.Stat(serverEnvPath); err == nil {
		_ = godotenv.Load(serverEnvPath)
		return
	}
	_ = godotenv.Load()
}

// runningInTTY returns true when stdout is a character device.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func main() {
	loadEnv()
	logger.Bootstrap(os.Getenv("COMPLAINT_DEBUG") != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("complaintdesk: %v", err)
	}
}

func run(ctx context.Context) error {
	//
	// ── 1.  Secrets and configuration ─────────────────────────────────
	//
	root := config.RootDir()
	if config.NeedsSecrets(root) {
		vc, err := vault.New(ctx, zap.S().Infof)
		if err != nil {
			return err
		}
		config.UseSecrets(vc)
	}
	cfg, err := config.LoadFrom(ctx, root)
	if err != nil {
		return err
	}

	logOut, err := logger.New(cfg.Paths.Abs(cfg.Logging.Dir), cfg.Logging.Level, cfg.Logging.Console && runningInTTY())
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	if err := requestinfo.InitGeo(cfg.Paths.Abs(cfg.Geo.DBPath)); err != nil {
		logOut.Warnw("geo database unavailable, country lookups disabled", "path", cfg.Geo.DBPath, "err", err)
	}
	defer requestinfo.CloseGeo()

	//
	// ── 2.  Form definitions ──────────────────────────────────────────
	//
	reg := form.NewRegistry()
	if err := reg.LoadDefaults(); err != nil {
		return err
	}
	formsDir := cfg.Paths.Abs(cfg.Form.Dir)
	if err := reg.LoadDir(formsDir); err != nil {
		return err
	}
	variant := cfg.Form.VariantID()
	if _, ok := reg.Get(variant); !ok {
		return errors.New("form variant " + variant + " is not defined")
	}
	logOut.Infow("form definitions loaded", "ids", reg.IDs(), "serving", variant)

	//
	// ── 3.  Page tokens, sessions, router ─────────────────────────────
	//
	var key []byte
	if cfg.Security.CSRFKey != "" {
		if key, err = form.DecodeKey(cfg.Security.CSRFKey); err != nil {
			return err
		}
	} else {
		logOut.Warnw("security.csrf_key unset, page tokens use a per-process key")
	}
	signer, err := form.NewSigner(key)
	if err != nil {
		return err
	}

	newBackend := func() (web.Backend, error) {
		return backend.New(cfg.Backend.BaseURL, backend.WithTimeout(cfg.Backend.Timeout))
	}
	store := session.NewStore(
		web.NewFactory(reg, variant, newBackend, session.WithLogger(logOut)),
		cfg.Session.MaxEntries,
		cfg.Session.SweepInterval,
		session.WithIdleTTL(cfg.Session.IdleTTL),
		session.WithStoreLogger(logOut),
	)
	defer store.Close()

	router := web.NewRouter(web.Options{
		Registry:   reg,
		Store:      store,
		Signer:     signer,
		Log:        logOut,
		ForceHTTPS: cfg.HTTP.ForceHTTPS,
	})
	srv := server.New(cfg.HTTP.ListenAddr, router, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})

	//
	// ── 4.  Run until signalled ───────────────────────────────────────
	//
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logOut.Infow("listening", "addr", cfg.HTTP.ListenAddr, "backend", cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Form.Watch {
		g.Go(func() error {
			if _, err := os.Stat(formsDir); err != nil {
				logOut.Infow("forms directory absent, watcher off", "dir", formsDir)
				return nil
			}
			return form.Watch(gctx, formsDir, reg,
				func() {
					metrics.FormReloadTotal.Inc()
					logOut.Infow("form definitions reloaded", "ids", reg.IDs())
				},
				func(err error) { logOut.Errorw("form reload failed", "err", err) },
			)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownTimeout := cfg.HTTP.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 15 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logOut.Infow("shutting down")
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
