// Command seed-admin creates the first admin account, or resets the password
// of an existing one. Registration through the API only yields customers.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/service"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/config"
	"github.com/99minutos/parcel-tracker/internal/infrastructure/db/mongo"
	"github.com/99minutos/parcel-tracker/pkg/logger"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password")
	name := flag.String("name", "Admin", "display name")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		l := zerolog.New(os.Stderr)
		l.Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "seed-admin"})

	if *email == "" || *password == "" {
		log.Fatal().Msg("--email and --password are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := mongo.NewAuthRepository(db)
	if err := mongo.EnsureIndexes(ctx, repo); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	created, err := service.NewAuthService(repo, cfg.JWTSecret, cfg.TokenTTL).EnsureAdmin(ctx, *email, *password, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("seed admin")
	}
	if created {
		log.Info().Str("email", *email).Msg("admin created")
		return
	}
	log.Info().Str("email", *email).Msg("admin credentials reset")
}
