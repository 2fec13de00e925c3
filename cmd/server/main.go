package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/aqveir/go-saas/auth"
	dynamostore "github.com/aqveir/go-saas/auth/store/dynamo"
	memorystore "github.com/aqveir/go-saas/auth/store/memory"
	redisstore "github.com/aqveir/go-saas/auth/store/redis"
	"github.com/aqveir/go-saas/config"
	"github.com/aqveir/go-saas/repository"
	"github.com/aqveir/go-saas/rest"
	"github.com/aqveir/go-saas/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	logger := auth.DefaultLogger()

	signingKey, err := resolveSigningKey(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	store, err := buildClaimStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	db, err := openDB(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	// the resolved key replaces the env value so the config stays the single
	// source the codec reads from
	cfg.JWTSecretKey = signingKey
	codec, err := auth.NewTokenCodecFromConfig(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}

	claims := auth.NewClaimService(codec, store, auth.WithClaimLogger(logger))

	users := repository.NewUsersRepository(db, repository.WithUsersLogger(logger))

	events := auth.NewEventBus(auth.WithEventLogger(logger))
	events.Subscribe(auth.EventLogin, func(ctx context.Context, ev auth.Event) error {
		logger.Info("login for claim %s", ev.Claim.Key())
		return nil
	})

	service := auth.NewService(users, claims,
		auth.WithEventBus(events),
		auth.WithLogger(logger),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ErrorHandler: rest.ErrorHandler,
	})

	controller := rest.NewAuthController(service, claims,
		rest.WithControllerLogger(logger),
		rest.WithDebug(cfg.Debug),
	)
	rest.RegisterAuthRoutes(app, controller)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		if err := app.Listen(addr); err != nil {
			log.Fatal(err)
		}
	}()

	waitExitSignal()

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown: %v", err)
	}
}

// resolveSigningKey prefers a Secrets Manager secret when one is named and
// falls back to the environment value.
func resolveSigningKey(ctx context.Context, cfg *config.App) (string, error) {
	if cfg.JWTSecretName == "" {
		return cfg.JWTSecretKey, nil
	}

	manager, err := secrets.NewFromRegion(ctx, cfg.AWSRegion)
	if err != nil {
		return "", err
	}

	return manager.GetSecret(ctx, cfg.JWTSecretName)
}

func buildClaimStore(ctx context.Context, cfg *config.App) (auth.ClaimStore, error) {
	switch cfg.ClaimStorage {
	case "redis":
		return redisstore.NewFromOptions(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redisstore.WithLogger(auth.DefaultLogger())), nil
	case "dynamodb":
		return dynamostore.NewFromRegion(ctx, cfg.AWSRegion, cfg.ClaimTableName)
	case "memory", "":
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown claim storage backend %q", cfg.ClaimStorage)
	}
}

func openDB(cfg *config.App) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func waitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
