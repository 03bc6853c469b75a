package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"menuqr.org/internal/auth"
	"menuqr.org/internal/httpapi"
	"menuqr.org/internal/menu"
	"menuqr.org/internal/obs"
	"menuqr.org/internal/store/pg"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	dsn := os.Getenv("MENUQR_PG_DSN")
	if dsn == "" {
		log.Fatal("missing MENUQR_PG_DSN")
	}
	secret := os.Getenv("MENUQR_AUTH_SECRET")
	if secret == "" {
		log.Fatal("missing MENUQR_AUTH_SECRET")
	}

	store, err := pg.Open(dsn)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}

	tokenOpts := []auth.TokenOption{}
	if issuer := os.Getenv("MENUQR_JWT_ISSUER"); issuer != "" {
		tokenOpts = append(tokenOpts, auth.WithIssuer(issuer))
	}
	if ttl := envDuration("MENUQR_ACCESS_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, auth.WithAccessTTL(ttl))
	}
	if ttl := envDuration("MENUQR_REFRESH_TTL"); ttl > 0 {
		tokenOpts = append(tokenOpts, auth.WithRefreshTTL(ttl))
	}
	tokens, err := auth.NewTokenService(secret, tokenOpts...)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	claims := auth.NewClaimService(store)
	sessions := auth.NewService(store, tokens, claims)
	roles := auth.NewRoleService(store)
	directory := auth.NewDirectoryService(store)
	menuSvc := menu.NewService(store)

	api := httpapi.New(sessions, tokens, claims, roles, directory, menuSvc,
		httpapi.WithVersion(version),
		httpapi.WithReadyProbe(store.Ping),
	)

	addr := os.Getenv("MENUQR_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting menuqr-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	purgeCtx, stopPurge := context.WithCancel(context.Background())
	go purgeExpiredTokens(purgeCtx, sessions)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	stopPurge()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	_ = store.Close()
	log.Println("Stopped")
}

// purgeExpiredTokens sweeps dead refresh tokens hourly so the table does not
// grow without bound.
func purgeExpiredTokens(ctx context.Context, sessions *auth.Service) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := sessions.PurgeExpiredTokens(ctx)
			if err != nil {
				obs.Line("error", "refresh_token_purge_failed", map[string]any{"error": err.Error()})
				continue
			}
			if n > 0 {
				obs.Line("info", "refresh_tokens_purged", map[string]any{"count": n})
			}
		}
	}
}

func envDuration(name string) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Fatalf("invalid %s: %v", name, err)
	}
	return d
}
