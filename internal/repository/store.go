package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SundayYogurt/auth_service/config"
	"github.com/SundayYogurt/auth_service/internal/domain"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Store groups the repositories of one backend.
type Store struct {
	Users    UserRepository
	Profiles ProfileRepository
	Audit    AuditRepository

	close func(ctx context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// Open connects the backend selected by cfg.DatabaseDriver.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongo:
		return OpenMongo(ctx, cfg.MongoURL, cfg.MongoDatabase, log)
	case config.DriverPostgres:
		return OpenPostgres(cfg.DatabaseDSN, log)
	case config.DriverMemory:
		log.Warn("using in-memory store; data is lost on restart")
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.DatabaseDriver)
	}
}

func NewMemory() *Store {
	m := NewMemoryStore()
	return &Store{Users: m, Profiles: m, Audit: m}
}

func OpenMongo(ctx context.Context, uri, database string, log *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info("database connected", "driver", "mongo", "database", database)

	db := client.Database(database)
	if err := EnsureMongoIndexes(ctx, db); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &Store{
		Users:    NewMongoUserRepository(db),
		Profiles: NewMongoProfileRepository(db),
		Audit:    NewMongoAuditRepository(db),
		close:    client.Disconnect,
	}, nil
}

// migrateLockID serialises AutoMigrate across replicas starting together.
const migrateLockID int64 = 20260222

func OpenPostgres(dsn string, log *slog.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("database connection error: %w", err)
	}
	log.Info("database connected", "driver", "postgres")

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("migration successful")

	return NewGormStore(db), nil
}

func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Users:    NewUserRepository(db),
		Profiles: NewProfileRepository(db),
		Audit:    NewAuditRepository(db),
		close: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func Migrate(db *gorm.DB) error {
	// the advisory lock is session scoped, so lock, migrate and unlock share one connection
	return db.Connection(func(conn *gorm.DB) error {
		if err := conn.Exec("SELECT pg_advisory_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("migration lock error: %w", err)
		}
		defer func() {
			_ = conn.Exec("SELECT pg_advisory_unlock(?)", migrateLockID).Error
		}()

		if err := conn.AutoMigrate(
			&domain.User{},
			&domain.Profile{},
			&domain.AuditLog{},
		); err != nil {
			return fmt.Errorf("migration error: %w", err)
		}
		return nil
	})
}
