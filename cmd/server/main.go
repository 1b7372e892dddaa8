package main

import (
	"context"
	"crypto/rsa"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"openflow/backend/internal/config"
	"openflow/backend/internal/db"
	healthhandler "openflow/backend/internal/health/handler"
	identityhandler "openflow/backend/internal/identity/handler"
	identityservice "openflow/backend/internal/identity/service"
	"openflow/backend/internal/security"
	"openflow/backend/internal/server"
	sessionrepo "openflow/backend/internal/session/repository"
	sessionservice "openflow/backend/internal/session/service"
	"openflow/backend/internal/telemetry"
	otelsetup "openflow/backend/internal/telemetry/otel"
	"openflow/backend/internal/telemetry/producer"
	userrepo "openflow/backend/internal/user/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, "openflow-backend", cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	keypair, err := security.LoadKeypair(cfg.JWTPrivateKeyPath, cfg.JWTPublicKeyPath)
	if err != nil {
		if !errors.Is(err, security.ErrKeyMaterialMissing) {
			log.Fatalf("keys: %v", err)
		}
		// Without the private key the service still serves logins; token
		// issuance fails until keys are provisioned (run cmd/keygen). JWKS
		// stays up if at least the public half exists, otherwise answers 503.
		log.Printf("keys: no signing key at %s; token issuance disabled", cfg.JWTPrivateKeyPath)
		if pub, pubErr := security.LoadPublicKey(cfg.JWTPublicKeyPath); pubErr == nil {
			keypair = &security.Keypair{Public: pub}
		}
	}
	if cfg.Env == "production" && strings.HasPrefix(cfg.JWTPrivateKeyPath, "./") {
		log.Printf("keys: JWT_PRIVATE_KEY_PATH is a relative in-tree path; use a secret store or protected volume in production")
	}

	tokens := security.NewTokenProvider(keypair, cfg.JWTIssuer, cfg.JWTAudience, cfg.JWTKeyID, cfg.TokenTTL())

	kafka, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("telemetry: kafka: %v", err)
	}
	if kafka != nil {
		defer kafka.Close()
	}
	var kafkaEmitter telemetry.EventEmitter
	if kafka != nil {
		kafkaEmitter = kafka
	}
	emitter := telemetry.NewFanout(otelsetup.NewEventEmitter(providers.LoggerProvider), kafkaEmitter)

	sessions := sessionservice.NewService(sessionrepo.NewPostgresRepository(database), cfg.SessionLifetime())
	users := userrepo.NewPostgresRepository(database)
	auth := identityservice.NewAuthService(users, sessions, security.NewHasher(cfg.BcryptCost), tokens, emitter)

	var publicKey *rsa.PublicKey
	if keypair != nil {
		publicKey = keypair.Public
	}
	identity := identityhandler.New(auth, emitter, publicKey, cfg.JWTKeyID, cfg.Env == "production")
	health := healthhandler.NewServer(database)

	router := server.Router(server.Deps{
		Identity: identity,
		Health:   health,
		Sessions: sessions,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}

	// Give in-flight async telemetry emits time to land before the
	// providers flush and close.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
