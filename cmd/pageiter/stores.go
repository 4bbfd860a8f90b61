package main

import (
	"context"
	"fmt"

	"github.com/kbukum/pageiter/bootstrap"
	"github.com/kbukum/pageiter/database"
	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/redis"
	"github.com/kbukum/pageiter/store/gormstore"
	"github.com/kbukum/pageiter/store/redisstore"
)

// Store backends selectable with --store.
const (
	backendSQL   = "sql"
	backendRedis = "redis"
)

const defaultRedisAddr = "localhost:6379"

// stores holds the connections opened by the app's start hooks.
type stores struct {
	db  *database.DB
	rdb *redis.Client
}

// openStores registers hooks that open the SQL database, and Redis when
// withRedis is set, on start and close them on stop. migrate forces the
// items table to be created even when database.auto_migrate is off.
func openStores(app *bootstrap.App[*AppConfig], withRedis, migrate bool) *stores {
	s := &stores{}
	app.OnStart(func(ctx context.Context) error {
		db, err := database.Open(ctx, app.Cfg.Database, app.Logger.WithComponent("database"))
		if err != nil {
			return err
		}
		s.db = db
		if migrate || app.Cfg.Database.AutoMigrate {
			return s.sqlItems().Migrate()
		}
		return nil
	})
	app.OnStop(func(context.Context) error {
		if s.db == nil {
			return nil
		}
		return s.db.Close()
	})
	if !withRedis {
		return s
	}

	app.OnStart(func(ctx context.Context) error {
		cfg := app.Cfg.Redis
		cfg.Enabled = true
		if cfg.Addr == "" {
			cfg.Addr = defaultRedisAddr
		}
		client, err := redis.New(cfg, app.Logger.WithComponent("redis"))
		if err != nil {
			return err
		}
		s.rdb = client
		return client.Ping(ctx)
	})
	app.OnStop(func(context.Context) error {
		if s.rdb == nil {
			return nil
		}
		return s.rdb.Close()
	})
	return s
}

func (s *stores) sqlItems() *gormstore.Store[Item] {
	return gormstore.New[Item](s.db)
}

func (s *stores) redisItems() *redisstore.Store[Item] {
	return redisstore.New[Item](s.rdb, s.rdb.KeyPrefix())
}

// source returns the iterator store for a --store value.
func (s *stores) source(backend string) (iterator.Store[Item], error) {
	switch backend {
	case backendSQL, "":
		return s.sqlItems(), nil
	case backendRedis:
		if s.rdb == nil {
			return nil, fmt.Errorf("redis store is not open")
		}
		return s.redisItems(), nil
	default:
		return nil, fmt.Errorf("unknown store %q (want %s or %s)", backend, backendSQL, backendRedis)
	}
}

func (s *stores) checkers() []observability.HealthChecker {
	checkers := []observability.HealthChecker{s.db}
	if s.rdb != nil {
		checkers = append(checkers, s.rdb)
	}
	return checkers
}
