package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signhub.io/internal/asset"
	"signhub.io/internal/auth"
	"signhub.io/internal/guard"
	"signhub.io/internal/httpapi"
	"signhub.io/internal/obs"
	"signhub.io/internal/store/pg"
	"signhub.io/internal/tenant"
)

var (
	version = "0.3.1"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("SIGNHUB_AUTH_SECRET")
	if secret == "" {
		log.Fatal("SIGNHUB_AUTH_SECRET is required")
	}
	addr := os.Getenv("SIGNHUB_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	baseDomain := os.Getenv("SIGNHUB_BASE_DOMAIN")
	if baseDomain == "" {
		baseDomain = "signhub.io"
	}
	env := os.Getenv("SIGNHUB_ENV")

	var (
		registry    tenant.Registry
		users       auth.UserStore
		memberships auth.MembershipStore
		revoked     auth.RevocationStore
		assets      asset.Store
		ready       httpapi.ReadyProbe
		pgStore     *pg.Store
	)
	if dsn := os.Getenv("SIGNHUB_PG_DSN"); dsn != "" {
		var err error
		pgStore, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		registry = pgStore
		users = pgStore
		memberships = pgStore
		revoked = pgStore
		assets = pgStore
		ready = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		// DSN-less development mode runs fully in memory.
		log.Println("SIGNHUB_PG_DSN not set, using in-memory stores")
		mem := auth.NewMemoryStore()
		registry = tenant.NewMemoryRegistry()
		users = mem
		memberships = mem
		revoked = mem
		assets = asset.NewMemoryStore()
	}

	resolver, err := tenant.NewResolver(registry,
		tenant.WithBaseDomain(baseDomain),
		tenant.WithDebugOverride(env != "production"),
	)
	if err != nil {
		log.Fatalf("resolver: %v", err)
	}
	tokens, err := auth.NewTokenService(users, memberships, revoked, registry, secret)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	api := httpapi.New(httpapi.Deps{
		Resolver:    resolver,
		Registry:    registry,
		Tokens:      tokens,
		Users:       users,
		Memberships: memberships,
		Assets:      guard.NewAssets(assets),
		Throttle:    auth.NewThrottle(10, 20),
		Ready:       ready,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting signhub-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}
