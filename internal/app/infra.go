package app

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/arellanoelden/think-piece/internal/config"
	"github.com/arellanoelden/think-piece/internal/db"
	"github.com/arellanoelden/think-piece/internal/logger"
	"github.com/arellanoelden/think-piece/internal/redis"
)

// Infra holds the shared connections. DB and Firebase are nil when the
// configuration does not need them.
type Infra struct {
	DB       *db.DB
	Redis    *redis.Client
	Firebase *firebase.App

	closers []func() error
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	infra := &Infra{}

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return nil, err
	}
	infra.Redis = redisClient
	infra.onClose(redisClient.Close)

	logger.Info("redis ready", map[string]any{"addr": cfg.RedisAddr})

	if cfg.AuthBackend == config.AuthBackendPostgres {
		conn, err := db.Open(ctx, cfg.DatabaseDSN)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.DB = conn
		infra.onClose(conn.Close)

		logger.Info("database ready", nil)
	}

	if cfg.AuthBackend == config.AuthBackendFirebase || cfg.ProfileStore == config.ProfileStoreFirestore {
		fbApp, err := newFirebaseApp(ctx, cfg)
		if err != nil {
			infra.Close()
			return nil, err
		}
		infra.Firebase = fbApp

		logger.Info("firebase ready", map[string]any{"project_id": cfg.FirebaseProjectID})
	}

	return infra, nil
}

func newFirebaseApp(ctx context.Context, cfg config.Config) (*firebase.App, error) {
	var opts []option.ClientOption
	if cfg.FirebaseCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirebaseCredentialsFile))
	}

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase: init app: %w", err)
	}
	return fbApp, nil
}

func (i *Infra) onClose(fn func() error) {
	i.closers = append(i.closers, fn)
}

// Close releases connections in reverse order of creation.
func (i *Infra) Close() error {
	var errs []error
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil {
			errs = append(errs, err)
		}
	}
	i.closers = nil
	return errors.Join(errs...)
}
