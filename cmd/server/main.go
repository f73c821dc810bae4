package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vaidhya-backend/internal/agent"
	"vaidhya-backend/internal/config"
	"vaidhya-backend/internal/conversation"
	"vaidhya-backend/internal/knowledge"
	"vaidhya-backend/internal/logger"
	"vaidhya-backend/internal/metrics"
	"vaidhya-backend/internal/report"
	"vaidhya-backend/internal/triage"
)

func main() {
	cfgPath := os.Getenv("CONFIG_FILE")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logg := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "vaidhya-backend",
	})

	// The knowledge base is non-negotiable: without it the scoring engine
	// cannot run, so a load failure is fatal with no degraded mode.
	index, profile, err := knowledge.Load(cfg.KnowledgeBasePath)
	if err != nil {
		log.Fatalf("failed to load knowledge base from %s: %v", cfg.KnowledgeBasePath, err)
	}
	logg.Info("knowledge base loaded",
		logger.String("path", cfg.KnowledgeBasePath),
		logger.Int("symptoms", index.Len()),
		logger.Int("diseases", len(profile)))

	repo := connectRepository(cfg, logg)
	store := conversation.NewStore(repo, logg)

	generator := agent.NewGroqClient(cfg.GroqAPIKey, cfg.GroqBaseURL, cfg.GroqModel)
	translator := agent.NewSarvamClient(cfg.SarvamAPIKey, cfg.SarvamBaseURL, logg)

	m := metrics.New(prometheus.DefaultRegisterer)

	svc := triage.NewService(triage.Deps{
		Store:             store,
		Index:             index,
		Generator:         generator,
		Translator:        translator,
		Metrics:           m,
		Logger:            logg,
		GenerationTimeout: cfg.GenerationTimeout(),
	})
	reportSvc := report.NewService(store, index, profile, logg)
	handler := triage.NewHandler(svc, reportSvc, logg)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(logg.HTTPMiddleware)

	// CORS for the avatar frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Route("/api", func(r chi.Router) {
		triage.RegisterRoutes(r, handler)
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}

	logg.Info("server starting", logger.Int("port", cfg.HTTPPort))
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

// connectRepository opens Postgres with a short retry loop and runs
// migrations. When no database is configured or the connection cannot be
// established, the server continues with in-memory-only sessions: session
// durability degrades, the dialogue does not.
func connectRepository(cfg config.Config, logg logger.Logger) conversation.Repository {
	if cfg.DatabaseURL == "" {
		logg.Warn("no database configured, sessions will not survive restarts")
		return conversation.NewNoopRepository()
	}

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.DatabaseURL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		logg.Info("waiting for database", logger.Int("attempt", i+1))
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logg.Warn("could not connect to database, continuing without persistence", logger.Err(err))
		return conversation.NewNoopRepository()
	}
	logg.Info("connected to database")

	mig, err := migrate.New(cfg.MigrationsPath, cfg.DatabaseURL)
	if err != nil {
		logg.Warn("migration init failed", logger.Err(err))
	} else if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
		logg.Warn("migration up failed", logger.Err(err))
	} else {
		logg.Info("migrations applied")
	}

	return conversation.NewPostgresRepository(db)
}
