package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"Pontis/internal/artifact"
	"Pontis/internal/auth"
	"Pontis/internal/config"
	"Pontis/internal/history"
	"Pontis/internal/importer"
	"Pontis/internal/knowledge"
	"Pontis/internal/llm"
	"Pontis/internal/logging"
	"Pontis/internal/pipeline"
	"Pontis/internal/repo"
)

var wg sync.WaitGroup

type deps struct {
	log       *slog.Logger
	tokenKey  []byte
	secure    bool
	svc       *pipeline.Service
	llmStats  llm.Stats
	users     repo.Repository
	designs   repo.DesignRepository
	artifacts artifact.Store
	registry  *prometheus.Registry
}

func CORS(mux *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*") //у меня нет домена это тестовый сервер
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		mux.ServeHTTP(w, r)
	})
}

func HandleList(mux *mux.Router, d deps) {
	authEnv := &auth.Authenv{JWTkey: d.tokenKey, Repo: d.users, Secure: d.secure, Log: d.log}
	designH := &pipeline.Handler{Svc: d.svc, LLMStats: d.llmStats, Log: d.log}
	historyH := &history.Handler{Svc: d.svc, Repo: d.designs, Artifacts: d.artifacts, Log: d.log}
	importH := &importer.Handler{Svc: d.svc, Log: d.log}

	limiter := auth.NewIPRateLimiter(2, 5)

	mux.Use(logging.Middleware(d.log))
	mux.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{})).Methods("GET")
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods("GET")

	api := mux.PathPrefix("/api").Subrouter()
	api.Use(limiter.LimitMiddleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")

	designH.Routes(api)

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	historyH.Routes(secureApi)
	secureApi.HandleFunc("/import", importH.Import).Methods("POST")
}

func buildDeps(ctx context.Context, cfg *config.Config, logger *slog.Logger) (deps, func(), error) {
	d := deps{
		log:      logger,
		tokenKey: []byte(cfg.TokenKey),
		secure:   cfg.TLSCert != "",
		registry: prometheus.NewRegistry(),
	}
	d.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	kb, err := knowledge.Load()
	if err != nil {
		return deps{}, nil, err
	}
	stats := llm.NewPromStats(d.registry)
	d.llmStats = stats
	analyzer := llm.NewChain(cfg.LLM.Chain(), stats, logger)
	logger.Info("llm providers", "chain", analyzer.Providers())

	pstats := &pipeline.Stats{}
	if err := pstats.Register(d.registry); err != nil {
		return deps{}, nil, err
	}
	d.svc = pipeline.New(analyzer, kb, pstats, logger)

	cleanup := func() {}
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, users and designs are kept in memory")
		mem := repo.NewMemory()
		d.users, d.designs = mem, mem
	} else {
		db, err := repo.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return deps{}, nil, err
		}
		if err := repo.EnsureSchema(ctx, db); err != nil {
			db.Close()
			return deps{}, nil, err
		}
		d.users, d.designs = repo.NewPostgresUserDB(db), repo.NewPostgresDesignDB(db)
		cleanup = func() { db.Close() }
	}

	if cfg.Artifact.Enabled {
		s3, err := artifact.NewS3Store(cfg.Artifact)
		if err != nil {
			cleanup()
			return deps{}, nil, err
		}
		d.artifacts = s3
		logger.Info("artifact storage enabled", "endpoint", cfg.Artifact.Endpoint, "bucket", cfg.Artifact.Bucket)
	}
	return d, cleanup, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	slog.SetDefault(logger)
	if err := cfg.RequireServer(); err != nil {
		log.Fatal(err)
	}

	d, cleanup, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		log.Fatal("Ошибка инициализации: ", err)
	}
	defer cleanup()

	mux := mux.NewRouter()
	HandleList(mux, d)
	handler := CORS(mux)

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting server", "addr", cfg.Port, "tls", cfg.TLSCert != "")
		var err error
		if cfg.TLSCert != "" {
			err = server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received!")
	logger.Info("Закрытие активных соединений")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Ошибка при остановке сервера: %v", err)
	}
	logger.Info("Сервер успешно остановлен")

	wg.Wait()
}
