package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"pair-quiz-service/internal/app"
	"pair-quiz-service/internal/auth"
	"pair-quiz-service/internal/config"
	"pair-quiz-service/internal/domain"
	"pair-quiz-service/internal/infra/memory"
	pgstore "pair-quiz-service/internal/infra/postgres"
	redisstore "pair-quiz-service/internal/infra/redis"
	transport "pair-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the pair quiz server",
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

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var games app.GameRepository = memory.NewGameRepository()
	var players app.PlayerRepository = memory.NewPlayerRepository()
	var loader memory.PoolLoader = memory.NewStaticPoolLoader(defaultCatalog())

	if cfg.Postgres.URL != "" {
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		db := openBunDB(cfg.Postgres.URL)
		games = pgstore.NewGameRepository(db)
		players = pgstore.NewPlayerRepository(db)
		loader = pgstore.NewPoolLoader(pool)
	}

	poolTTL := config.DurationOr(cfg.Pool.TTL, 10*time.Minute)
	var questionPool app.QuestionPool
	if redisClient != nil {
		questionPool = redisstore.NewPoolRepository(redisClient, loader, poolTTL)
	} else {
		questionPool = memory.NewPoolRepository(loader, poolTTL)
	}

	finishWindow := config.DurationOr(cfg.Game.FinishWindow, 10*time.Second)
	service := app.NewQuizService(games, players, questionPool, finishWindow)
	identity := auth.NewJWTIdentity(cfg.Auth.JWTSecret)
	handler := transport.NewHandler(service, identity)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting pair quiz service on :%s", finalPort)
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

// defaultCatalog backs runs without Postgres; production loads the catalog
// from the pool_questions table instead.
func defaultCatalog() []domain.TriviaItem {
	return []domain.TriviaItem{
		{Body: "What is the capital of France?", CorrectAnswer: "Paris"},
		{Body: "How many continents are there on Earth?", CorrectAnswer: "7"},
		{Body: "What is the chemical symbol for gold?", CorrectAnswer: "Au"},
		{Body: "In what year did the Second World War end?", CorrectAnswer: "1945"},
		{Body: "What is the largest planet in the Solar System?", CorrectAnswer: "Jupiter"},
		{Body: "Who wrote the novel \"War and Peace\"?", CorrectAnswer: "Leo Tolstoy"},
		{Body: "What is the square root of 144?", CorrectAnswer: "12"},
		{Body: "Which ocean is the deepest?", CorrectAnswer: "Pacific"},
		{Body: "What gas do plants absorb from the atmosphere?", CorrectAnswer: "Carbon dioxide"},
		{Body: "How many minutes are there in a full day?", CorrectAnswer: "1440"},
		{Body: "What is the longest river in the world?", CorrectAnswer: "Nile"},
		{Body: "Which element has the atomic number 1?", CorrectAnswer: "Hydrogen"},
	}
}
