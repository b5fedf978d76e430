package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samad-59/access-guard-role-Project/internal/auth"
	"github.com/samad-59/access-guard-role-Project/internal/httpapi"
	"github.com/samad-59/access-guard-role-Project/internal/migrate"
	"github.com/samad-59/access-guard-role-Project/internal/obs"
	"github.com/samad-59/access-guard-role-Project/internal/store/memory"
	"github.com/samad-59/access-guard-role-Project/internal/store/pg"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("ACCESSGUARD_AUTH_SECRET")
	if secret == "" {
		log.Fatal("ACCESSGUARD_AUTH_SECRET is required")
	}

	var (
		store auth.Store
		probe httpapi.ReadyProbe
	)
	if dsn := os.Getenv("ACCESSGUARD_PG_DSN"); dsn != "" {
		pgStore, err := pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		defer pgStore.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := migrate.NewManager(pgStore.DB(), migrationsDir()).Up(ctx); err != nil {
			cancel()
			log.Fatalf("migrate up: %v", err)
		}
		cancel()

		store = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
	} else {
		log.Print("ACCESSGUARD_PG_DSN not set, using in-memory store")
		store = memory.New()
	}

	tokens, err := auth.NewTokenIssuer(secret)
	if err != nil {
		log.Fatalf("token issuer: %v", err)
	}
	svc, err := auth.NewService(store, tokens)
	if err != nil {
		log.Fatalf("service: %v", err)
	}

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := svc.Bootstrap(ctx,
			envOr("ACCESSGUARD_ADMIN_NAME", "Administrator"),
			envOr("ACCESSGUARD_ADMIN_EMAIL", "admin@example.com"),
			envOr("ACCESSGUARD_ADMIN_PASSWORD", "changeme"),
		)
		cancel()
		if err != nil {
			log.Fatalf("bootstrap: %v", err)
		}
	}

	api := httpapi.New(svc, probe, version)

	srv := &http.Server{
		Addr:              ":" + envOr("PORT", "8080"),
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting access-guard-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	var grpcSrv *httpapi.GRPCServer
	if addr := os.Getenv("ACCESSGUARD_GRPC_ADDR"); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Fatalf("grpc listen: %v", err)
		}
		grpcSrv = httpapi.NewGRPCServer(probe)
		go grpcSrv.Watch(rootCtx, 10*time.Second)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				log.Printf("grpc serve: %v", err)
			}
		}()
		log.Printf("gRPC health on %s", addr)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if grpcSrv != nil {
		grpcSrv.Stop()
	}
	log.Println("Stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func migrationsDir() string {
	if dir := os.Getenv("ACCESSGUARD_MIGRATIONS"); dir != "" {
		return dir
	}
	return "migrations"
}
