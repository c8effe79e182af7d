package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"media-tracker/internal/config"
)

// Stores owns every external client handle the server uses. Fields are nil
// when the configuration does not need them.
type Stores struct {
	SQL     *sql.DB
	Mongo   *mongo.Client
	MongoDB *mongo.Database
	Redis   *redis.Client
}

// Open connects to the stores cfg asks for. PostgreSQL and MongoDB are
// opened for the postgres backend only. Redis is required by the redis
// sequencer and optional otherwise.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	s := &Stores{}

	if cfg.Storage == config.StoragePostgres {
		db, err := NewPostgres(ctx, cfg.DB)
		if err != nil {
			return nil, err
		}
		s.SQL = db

		client, mdb, err := NewMongo(ctx, cfg.Mongo)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.Mongo, s.MongoDB = client, mdb
	}

	rdb, err := NewRedis(ctx, cfg.Redis)
	switch {
	case err == nil:
		s.Redis = rdb
	case cfg.Sequencer == config.SequencerRedis:
		_ = s.Close(ctx)
		return nil, fmt.Errorf("redis sequencer: %w", err)
	default:
		slog.Warn("Redis unavailable, continuing without it", "addr", cfg.Redis.Addr, "error", err)
	}

	return s, nil
}

// Close releases every open handle.
func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if s.Mongo != nil {
		if err := s.Mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	if s.SQL != nil {
		if err := s.SQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}
