package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"blogapi/config"
	"blogapi/models"
	"blogapi/repository"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 10 * time.Second

// Open connects to the backend selected by cfg.StorageType and returns its
// repositories. The caller owns Store.Close.
func Open(ctx context.Context, cfg *config.Config, log *slog.Logger) (*repository.Store, error) {
	switch cfg.StorageType {
	case config.StorageMongo:
		client, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := repository.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDB)); err != nil {
			_ = client.Disconnect(ctx)
			return nil, err
		}
		log.Info("connected to mongodb", "db", cfg.MongoDB)
		return repository.NewMongoStore(client, cfg.MongoDB), nil

	case config.StoragePostgres:
		db, err := ConnectPostgres(cfg)
		if err != nil {
			return nil, err
		}
		store := repository.NewGormStore(db)
		if err := Migrate(db); err != nil {
			_ = store.Close(ctx)
			return nil, err
		}
		log.Info("connected to postgres", "host", cfg.DBHost, "db", cfg.DBName)
		return store, nil

	case config.StorageMemory:
		log.Warn("using in-memory storage, data is lost on restart")
		return repository.NewMemoryStore().Store(), nil
	}
	return nil, fmt.Errorf("unknown storage type %q", cfg.StorageType)
}

func ConnectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return client, nil
}

func ConnectPostgres(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
