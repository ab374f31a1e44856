package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/coursehub/coursehub-api/internal/infrastructure/config"
	mongostore "github.com/coursehub/coursehub-api/internal/infrastructure/db/mongo"
	redisstore "github.com/coursehub/coursehub-api/internal/infrastructure/db/redis"
	"github.com/coursehub/coursehub-api/pkg/logger"
)

const serviceName = "coursehub-api"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "coursehub",
	Short: "CourseHub accounts and enrollment API",
	Long: `CourseHub serves registration, login, profiles, the course catalog
and enrollment over HTTP, backed by MongoDB and Redis.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// stores holds the live connections shared by the subcommands.
type stores struct {
	cfg   *config.Config
	log   zerolog.Logger
	mongo *mongo.Client
	db    *mongo.Database
	redis *redis.Client
}

// connect loads configuration, initialises the logger and dials both stores.
func connect(ctx context.Context) (*stores, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("database", cfg.Mongo.Database).Msg("connected to mongodb")

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to redis")

	return &stores{cfg: cfg, log: log, mongo: client, db: db, redis: rdb}, nil
}

func (s *stores) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.redis.Close(); err != nil {
		s.log.Warn().Err(err).Msg("redis close")
	}
	if err := s.mongo.Disconnect(ctx); err != nil {
		s.log.Warn().Err(err).Msg("mongo disconnect")
	}
}

func init() {
	rootCmd.SetErrPrefix(fmt.Sprintf("%s:", serviceName))
}
