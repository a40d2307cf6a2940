package main

import (
	"context"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/olympia-platform/internal/catalog"
	"github.com/example/olympia-platform/internal/comments"
	"github.com/example/olympia-platform/internal/docstore"
	"github.com/example/olympia-platform/internal/httpapi"
	"github.com/example/olympia-platform/internal/identity"
	"github.com/example/olympia-platform/internal/identity/tokens"
	"github.com/example/olympia-platform/internal/media"
	"github.com/example/olympia-platform/internal/platform/auth"
	"github.com/example/olympia-platform/internal/platform/config"
	"github.com/example/olympia-platform/internal/platform/db"
	"github.com/example/olympia-platform/internal/platform/events"
	"github.com/example/olympia-platform/internal/platform/httpserver"
	"github.com/example/olympia-platform/internal/platform/logging"
	"github.com/example/olympia-platform/internal/platform/natsconn"
	"github.com/example/olympia-platform/internal/platform/run"
	"github.com/example/olympia-platform/internal/problems"
	"github.com/example/olympia-platform/internal/progress"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	// Documents live in Postgres when a DSN is configured; the in-memory
	// store keeps local development dependency-free.
	var store docstore.Store
	if cfg.DatabaseURL != "" {
		pool, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", zap.Error(err))
			run.Exit(1)
		}
		defer pool.Close()
		store = docstore.NewPostgres(pool)

		identitySvc := buildIdentity(cfg, identity.PgStore{DB: pool})
		startServer(cfg, log, store, identitySvc)
		return
	}

	log.Warn("DATABASE_URL not set, using in-memory store")
	store = docstore.NewMemory()
	startServer(cfg, log, store, nil)
}

func buildIdentity(cfg config.AppConfig, st identity.Store) *identity.Service {
	return &identity.Service{
		Store: st,
		Tokens: tokens.Service{
			Secret:          []byte(cfg.JWTSecret),
			AccessTokenTTL:  cfg.AccessTokenTTL,
			RefreshTokenTTL: cfg.RefreshTokenTTL,
		},
		Hub: identity.NewHub(),
	}
}

func startServer(cfg config.AppConfig, log *zap.Logger, store docstore.Store, identitySvc *identity.Service) {
	var pub *events.Publisher
	if cfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL})
		if err != nil {
			log.Error("connect nats", zap.Error(err))
			run.Exit(1)
		}
		defer nc.Drain()
		js, err := nc.JetStream()
		if err != nil {
			log.Error("jetstream context", zap.Error(err))
			run.Exit(1)
		}
		pub = events.New(js, log)
	} else {
		log.Warn("NATS_URL not set, events disabled")
	}

	if identitySvc != nil {
		identitySvc.Events = pub
		identitySvc.Log = log
	}

	cat := catalog.New(store)
	progressSvc := progress.NewService(store, cat, log)
	trackerCfg := progress.Config{
		BucketSizePercent:   cfg.Progress.BucketSizePercent,
		CompletionThreshold: cfg.Progress.CompletionThreshold,
	}
	registry := progress.NewTrackerRegistry(store, pub, log, trackerCfg)
	problemsSvc := problems.NewService(store, pub, log)
	commentsSvc := comments.NewService(store, pub, log)

	var resolver media.Resolver = media.NewSignedResolver(cfg.Media.BaseURL, cfg.Media.SigningSecret, cfg.Media.URLTTL)
	if cfg.RedisURL != "" {
		// Cache entries expire well before the links they hold do.
		cache, err := media.NewRedisCache(cfg.RedisURL, cfg.Media.URLTTL/2)
		if err != nil {
			log.Error("init redis cache", zap.Error(err))
			run.Exit(1)
		}
		resolver = media.NewCachedResolver(resolver, cache, log)
	}

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}

	if identitySvc != nil {
		r.Post("/v1/auth/register", httpapi.Register(identitySvc))
		r.Post("/v1/auth/login", httpapi.Login(identitySvc))
		r.Post("/v1/auth/refresh", httpapi.Refresh(identitySvc))
		r.Post("/v1/auth/logout", httpapi.Logout(identitySvc))
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(verifier))

		if identitySvc != nil {
			r.Get("/v1/me", httpapi.Me(identitySvc))
		}

		r.Get("/v1/course/videos", httpapi.ListCourseVideos(cat, progressSvc))
		r.Get("/v1/course/videos/{video_id}/watch", httpapi.WatchVideo(cat, commentsSvc, resolver))
		r.Post("/v1/course/videos/{video_id}/progress", httpapi.PostProgress(registry))
		r.Get("/v1/course/summary", httpapi.CourseSummary(progressSvc))
		r.Post("/v1/course/provision", httpapi.ProvisionCourse(progressSvc))

		r.Get("/v1/problems", httpapi.ListProblems(cat, problemsSvc))
		r.Get("/v1/problems/solved", httpapi.ListSolved(problemsSvc))
		r.Get("/v1/problems/{problem_id}/solution", httpapi.GetSolution(cat, resolver))
		r.Put("/v1/problems/{problem_id}/reflection", httpapi.PutReflection(problemsSvc))
		r.Get("/v1/problems/{problem_id}/reflection", httpapi.GetReflection(problemsSvc))

		r.Post("/v1/videos/{video_id}/comments", httpapi.PostComment(commentsSvc))
		r.Get("/v1/videos/{video_id}/comments", httpapi.ListComments(commentsSvc))
		r.Post("/v1/videos/{video_id}/comments/{comment_id}/replies", httpapi.PostReply(commentsSvc))
		r.Get("/v1/videos/{video_id}/comments/{comment_id}/replies", httpapi.ListReplies(commentsSvc))
	})

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			runner.Graceful(srv.Shutdown)
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}
