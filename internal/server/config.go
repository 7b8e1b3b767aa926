package server

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/tkarrer/deckhand/pkg/store"
)

// Config holds server configuration, populated from DECKHAND_* environment
// variables. A .env file in the working directory is loaded first when
// present.
type Config struct {
	Addr string `env:"DECKHAND_ADDR" envDefault:":8080"`

	// Store backend selection: memory, file, redis, or mongo.
	StoreBackend string `env:"DECKHAND_STORE" envDefault:"memory"`
	StoreDir     string `env:"DECKHAND_STORE_DIR"`
	RedisURL     string `env:"DECKHAND_REDIS_URL" envDefault:"redis://localhost:6379/0"`
	MongoURI     string `env:"DECKHAND_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDB      string `env:"DECKHAND_MONGO_DB" envDefault:"deckhand"`
	MongoColl    string `env:"DECKHAND_MONGO_COLLECTION" envDefault:"state"`

	// Update check configuration.
	ReleasesURL   string `env:"DECKHAND_RELEASES_URL"`
	UpdateChannel string `env:"DECKHAND_UPDATE_CHANNEL" envDefault:"stable"`

	// Optional theme table override.
	ThemeFile string `env:"DECKHAND_THEME_FILE"`

	RequestTimeout time.Duration `env:"DECKHAND_REQUEST_TIMEOUT" envDefault:"30s"`
}

// LoadConfig reads configuration from the environment, after loading a
// .env file if one exists next to the process.
func LoadConfig() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// OpenStore creates the persistence backend named by the configuration.
func (c Config) OpenStore(ctx context.Context) (store.Store, error) {
	switch c.StoreBackend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(c.StoreDir)
	case "redis":
		return store.NewRedisStore(ctx, c.RedisURL)
	case "mongo":
		return store.NewMongoStore(ctx, c.MongoURI, c.MongoDB, c.MongoColl)
	default:
		return nil, fmt.Errorf("unknown store backend %q (want memory, file, redis, or mongo)", c.StoreBackend)
	}
}
