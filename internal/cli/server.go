package cli

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/thungan1909/easy-english-backend/internal/app"
	"github.com/thungan1909/easy-english-backend/internal/auth"
	"github.com/thungan1909/easy-english-backend/internal/config"
	"github.com/thungan1909/easy-english-backend/internal/domain"
	"github.com/thungan1909/easy-english-backend/internal/infra/memory"
	"github.com/thungan1909/easy-english-backend/internal/infra/postgres"
	rediscache "github.com/thungan1909/easy-english-backend/internal/infra/redis"
	transport "github.com/thungan1909/easy-english-backend/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the backend server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *goredis.Client
	if cfg.Redis.Addr != "" {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	lessonTTL := config.TTLDuration(cfg.Cache.LessonTTL, 10*time.Minute)
	boardTTL := config.TTLDuration(cfg.Cache.BoardTTL, 30*time.Second)

	var (
		users       app.UserRepository
		lessons     app.LessonRepository
		submissions app.SubmissionRepository
		challenges  app.ChallengeRepository
		loader      memory.LessonLoader
	)
	if cfg.Postgres.URL != "" {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
		db := bun.NewDB(sqldb, pgdialect.New())
		defer db.Close()

		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()

		users = postgres.NewUserRepository(db)
		lessons = postgres.NewLessonRepository(db)
		submissions = postgres.NewSubmissionRepository(db)
		challenges = postgres.NewChallengeRepository(db)
		loader = postgres.NewLessonLoader(pool)
	} else {
		memLessons := memory.NewLessonRepository()
		seedLessons(ctx, memLessons)
		users = memory.NewUserRepository()
		lessons = memLessons
		submissions = memory.NewSubmissionRepository()
		challenges = memory.NewChallengeRepository()
		loader = memory.NewRepositoryLoader(memLessons)
	}

	var (
		reader      app.LessonReader
		invalidator app.LessonInvalidator
	)
	if redisClient != nil {
		cache := rediscache.NewLessonCache(redisClient, loader, lessonTTL)
		reader, invalidator = cache, cache
	} else {
		cache := memory.NewLessonCache(loader, lessonTTL)
		reader, invalidator = cache, cache
	}

	var board app.WeeklyBoard
	if redisClient != nil {
		board = rediscache.NewWeeklyBoard(redisClient, users, boardTTL)
	}

	boardSize := cfg.Leaderboard.Size
	if boardSize <= 0 {
		boardSize = 10
	}
	jwtTTL := config.TTLDuration(cfg.Auth.JWTTTL, 24*time.Hour)
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, jwtTTL)
	hub := app.NewLeaderboardHub()

	api := &transport.API{
		Auth:       app.NewAuthService(users, app.LogMailer{}, tokens),
		Lessons:    app.NewLessonService(lessons, reader, hub),
		Submits:    app.NewSubmitService(lessons, users, submissions, hub, boardSize).WithInvalidator(invalidator),
		Users:      app.NewUserService(users, board, boardSize),
		Challenges: app.NewChallengeService(challenges, submissions, users),
		Tokens:     tokens,
	}

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      api.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting easy-english backend on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// seedLessons provides sample content for the in-memory mode used in local
// development and demos.
func seedLessons(ctx context.Context, repo *memory.LessonRepository) {
	samples := []domain.Lesson{
		{
			ID:      "a3f1c9e2-1111-4111-8111-000000000001",
			Title:   "The cat on the mat",
			Content: "The cat sat on the mat",
			Tokens:  []string{"The", "_____", "sat", "on", "the", "mat"},
			Words:   []string{"The", "cat", "sat", "on", "the", "mat"},
			Source:  "starter pack",
		},
		{
			ID:      "a3f1c9e2-2222-4222-8222-000000000002",
			Title:   "A sunny day",
			Content: "What a sunny day it is",
			Tokens:  []string{"What", "a", "_____", "day", "it", "_____"},
			Words:   []string{"What", "a", "sunny", "day", "it", "is"},
			Source:  "starter pack",
		},
	}
	for _, lesson := range samples {
		l := lesson
		if err := repo.Create(ctx, &l); err != nil {
			log.Printf("seed lesson %s: %v", l.ID, err)
		}
	}
}
