package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/arellanoelden/think-piece/internal/config"
	"github.com/arellanoelden/think-piece/internal/docstore"
	fsstore "github.com/arellanoelden/think-piece/internal/docstore/firestore"
	mongostore "github.com/arellanoelden/think-piece/internal/docstore/mongo"
	pgstore "github.com/arellanoelden/think-piece/internal/docstore/postgres"
	"github.com/arellanoelden/think-piece/internal/docstore/redisstore"
	"github.com/arellanoelden/think-piece/internal/docstore/sqlite"
)

// newDocStore opens the profile document store selected by PROFILE_STORE.
func newDocStore(ctx context.Context, cfg config.Config, infra *Infra) (docstore.Store, error) {
	switch cfg.ProfileStore {
	case config.ProfileStoreMemory:
		return docstore.NewMemoryStore(), nil

	case config.ProfileStoreRedis:
		return redisstore.New(infra.Redis.Client), nil

	case config.ProfileStoreSQLite:
		return sqlite.New(cfg.SQLitePath)

	case config.ProfileStorePostgres:
		return pgstore.New(ctx, cfg.DatabaseDSN)

	case config.ProfileStoreMongo:
		return mongostore.New(ctx, cfg.MongoURI, cfg.MongoDB)

	case config.ProfileStoreFirestore:
		if infra.Firebase == nil {
			return nil, errors.New("firestore profile store needs a firebase app")
		}
		client, err := infra.Firebase.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("firestore: client: %w", err)
		}
		return fsstore.New(client), nil

	default:
		return nil, fmt.Errorf("unknown profile store %q", cfg.ProfileStore)
	}
}
