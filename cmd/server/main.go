package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"registration-wizard/internal/config"
	"registration-wizard/internal/factory"
	"registration-wizard/internal/util"
)

func main() {
	// Initialize factory (which loads config and initializes all clients)
	f, err := factory.NewFactory()
	if err != nil {
		util.Fatal("Failed to initialize factory", util.ErrorField(err))
	}
	defer util.Sync()
	defer f.Close()

	if err := run(f); err != nil {
		util.Error("Server stopped with error", util.ErrorField(err))
		os.Exit(1)
	}
}

func run(f *factory.Factory) error {
	cfg := f.Config()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	servers := []*http.Server{newServer(cfg, cfg.GetServerAddress(), f.Router())}
	if cfg.Server.EnableTLS {
		servers[0].TLSConfig = f.TLSManager().GetTLSConfig()

		// Plain port answers ACME challenges and redirects everything else
		if acme := f.TLSManager().GetAutocertManager(); acme != nil {
			servers = append(servers, newServer(cfg, cfg.PlainAddress(), acme.HTTPHandler(nil)))
		}
	} else {
		util.Warn("Starting HTTP server - TLS is disabled",
			util.String("environment", cfg.Environment),
			util.Int("port", cfg.Server.Port),
		)
	}

	g, ctx := errgroup.WithContext(ctx)

	for i, srv := range servers {
		srv := srv
		tlsEnabled := cfg.Server.EnableTLS && i == 0
		g.Go(func() error {
			util.Info("Server started",
				util.String("address", srv.Addr),
				util.Bool("tls_enabled", tlsEnabled),
			)
			var err error
			if tlsEnabled {
				err = srv.ListenAndServeTLS("", "")
			} else {
				err = srv.ListenAndServe()
			}
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		})
	}

	g.Go(func() error {
		return f.Sessions().Run(ctx, cfg.Session.SweepEvery)
	})

	g.Go(func() error {
		<-ctx.Done()
		util.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newServer(cfg *config.Config, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}
