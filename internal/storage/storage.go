// Package storage selects and opens the repositories for the configured
// backend.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Prajwol-Chhetri/Task-REST-API/internal/config"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/credential"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/database"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/handler"
	"github.com/Prajwol-Chhetri/Task-REST-API/internal/repository"
)

// Denylist is the refresh-token denylist plus the housekeeping the server
// runs against it.
type Denylist interface {
	Revoke(ctx context.Context, tokenHash string, userID uint64, exp time.Time) error
	IsRevoked(ctx context.Context, tokenHash string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Storage bundles the repositories of one backend. DB is nil for the
// in-memory backend.
type Storage struct {
	DB     *sql.DB
	Users  credential.UserRepository
	Tasks  handler.TaskRepository
	Tokens Denylist
}

// Open connects to the backend named by cfg.Storage. For MySQL it also
// applies pending migrations.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Storage, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on restart")
		return Memory(), nil
	case config.StorageMySQL:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		log.Info("mysql ready", "host", cfg.DBHost, "db", cfg.DBName)
		return &Storage{
			DB:     db,
			Users:  repository.NewUserRepo(db),
			Tasks:  repository.NewTaskRepo(db),
			Tokens: repository.NewTokenRepo(db),
		}, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// Memory returns a fresh in-memory backend.
func Memory() *Storage {
	users := repository.NewMemoryUserRepo()
	return &Storage{
		Users:  users,
		Tasks:  repository.NewMemoryTaskRepo(users),
		Tokens: repository.NewMemoryTokenRepo(),
	}
}

// Pinger returns the health-check target, or nil for the in-memory backend.
func (s *Storage) Pinger() handler.Pinger {
	if s.DB == nil {
		return nil
	}
	return s.DB
}

// PurgeLoop deletes expired denylist entries every interval until ctx is
// done.
func (s *Storage) PurgeLoop(ctx context.Context, interval time.Duration, log *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := s.Tokens.PurgeExpired(ctx, now.UTC())
			if err != nil {
				log.Warn("purge revoked tokens failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("purged revoked tokens", "count", n)
			}
		}
	}
}

func (s *Storage) Close() error {
	if s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
