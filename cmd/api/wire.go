package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/bryanwahyu/medassist/internal/application"
	appassessment "github.com/bryanwahyu/medassist/internal/application/assessment"
	"github.com/bryanwahyu/medassist/internal/application/plans"
	"github.com/bryanwahyu/medassist/internal/application/quota"
	"github.com/bryanwahyu/medassist/internal/application/tenant"
	appusage "github.com/bryanwahyu/medassist/internal/application/usage"
	"github.com/bryanwahyu/medassist/internal/config"
	"github.com/bryanwahyu/medassist/internal/domain/assessment"
	"github.com/bryanwahyu/medassist/internal/domain/doctor"
	"github.com/bryanwahyu/medassist/internal/domain/hospital"
	"github.com/bryanwahyu/medassist/internal/domain/usage"
	"github.com/bryanwahyu/medassist/internal/infra/ai/gemini"
	"github.com/bryanwahyu/medassist/internal/infra/ai/openai"
	"github.com/bryanwahyu/medassist/internal/infra/ai/registry"
	"github.com/bryanwahyu/medassist/internal/infra/db/memory"
	"github.com/bryanwahyu/medassist/internal/infra/db/mysql"
	"github.com/bryanwahyu/medassist/internal/infra/db/postgres"
	"github.com/bryanwahyu/medassist/internal/infra/events"
	"github.com/bryanwahyu/medassist/internal/infra/httpserver"
	"github.com/bryanwahyu/medassist/internal/infra/storage"
	"github.com/bryanwahyu/medassist/internal/middleware"
)

type repos struct {
	hospitals hospital.Repository
	doctors   doctor.Repository
	reports   assessment.Repository
	usage     usage.Repository
	db        *sql.DB
}

type app struct {
	Handler http.Handler
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwtSecret (JWT_SECRET) is required")
	}
	a := &app{}
	clock := application.SystemClock{}

	rp, err := openRepos(ctx, cfg, clock)
	if err != nil {
		return nil, err
	}
	if rp.db != nil {
		a.closers = append(a.closers, rp.db.Close)
	}

	providers := registry.New(cfg.AI.DefaultProvider)
	if key := cfg.AI.OpenAI.APIKey; key != "" {
		providers.Register(openai.NewClient(key, cfg.AI.OpenAI.BaseURL, cfg.AI.Timeout), cfg.AI.OpenAI.Model)
	} else {
		providers.SetDefaultModel(openai.ProviderName, cfg.AI.OpenAI.Model)
	}
	if key := cfg.AI.Gemini.APIKey; key != "" {
		providers.Register(gemini.NewClient(key, cfg.AI.Gemini.BaseURL, cfg.AI.Timeout), cfg.AI.Gemini.Model)
	} else {
		providers.SetDefaultModel(gemini.ProviderName, cfg.AI.Gemini.Model)
	}
	if _, _, err := providers.Select("", ""); err != nil {
		// Not fatal: tenant endpoints still work, assessments return 503.
		log.Warn("default ai provider has no credentials", zap.String("provider", providers.DefaultProvider()), zap.Error(err))
	}

	ledger := quota.NewLedger(rp.hospitals, clock, log.Named("quota"))
	svc := &appassessment.Service{
		Ledger:       ledger,
		Orchestrator: appassessment.NewOrchestrator(providers, rp.doctors, cfg.AI.MaxTokens, log.Named("orchestrator")),
		Followups:    appassessment.NewFollowupController(providers, cfg.AI.MaxTurns),
		Reports:      rp.reports,
		Doctors:      rp.doctors,
		Usage:        appusage.NewRecorder(rp.usage, clock, log.Named("usage")),
		Clock:        clock,
		Logger:       log.Named("assessment"),
	}

	if cfg.Minio.Endpoint != "" {
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("minio init error: %w", err)
		}
		svc.Archive = store
	}
	if len(cfg.Kafka.Brokers) > 0 {
		pub := events.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		svc.Notifier = pub
		a.closers = append(a.closers, pub.Close)
	}

	checks := map[string]middleware.HealthChecker{}
	if rp.db != nil {
		checks["database"] = &middleware.DatabaseHealthChecker{DB: rp.db}
	}

	var limiter middleware.Limiter
	if cfg.RateLimit.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RateLimit.RedisAddr,
			Password: cfg.RateLimit.RedisPassword,
			DB:       cfg.RateLimit.RedisDB,
		})
		a.closers = append(a.closers, rdb.Close)
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.AssessmentsPerMinute)
		checks["redis"] = &middleware.RedisHealthChecker{Client: rdb}
	} else {
		mem := middleware.NewMemoryLimiter(cfg.RateLimit.AssessmentsPerMinute)
		go mem.Cleanup(ctx, 5*time.Minute, 10*time.Minute)
		limiter = mem
	}

	resolver := tenant.NewResolver(rp.hospitals, cfg.Server.PublicPaths)
	auth := &middleware.Authenticator{
		Secret: []byte(cfg.Auth.JWTSecret),
		Issuer: cfg.Auth.Issuer,
		Public: resolver.IsPublic,
	}

	a.Handler = httpserver.NewRouter(httpserver.Deps{
		Assessments:  svc,
		Plans:        &plans.Service{Hospitals: rp.hospitals, Ledger: ledger, Logger: log.Named("plans")},
		Ledger:       ledger,
		Resolver:     resolver,
		Auth:         auth,
		StartLimiter: limiter,
		HealthChecks: checks,
		CORSOrigins:  cfg.Server.CORSOrigins,
		Logger:       log,
	})
	return a, nil
}

func openRepos(ctx context.Context, cfg *config.Config, clock application.Clock) (*repos, error) {
	switch cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect error: %w", err)
		}
		return &repos{
			hospitals: postgres.NewHospitalRepository(db),
			doctors:   postgres.NewDoctorRepository(db),
			reports:   postgres.NewReportRepository(db),
			usage:     postgres.NewUsageRepository(db),
			db:        db,
		}, nil
	case "mysql":
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect error: %w", err)
		}
		return &repos{
			hospitals: mysql.NewHospitalRepository(db),
			doctors:   mysql.NewDoctorRepository(db),
			reports:   mysql.NewReportRepository(db),
			usage:     mysql.NewUsageRepository(db),
			db:        db,
		}, nil
	default:
		hospitals := memory.NewHospitalRepository()
		doctors := memory.NewDoctorRepository()
		if cfg.Database.Seed != "" {
			seed, err := memory.LoadSeed(cfg.Database.Seed)
			if err != nil {
				return nil, err
			}
			seed.Apply(hospitals, doctors, clock.Now())
		}
		return &repos{
			hospitals: hospitals,
			doctors:   doctors,
			reports:   memory.NewReportRepository(),
			usage:     memory.NewUsageRepository(),
		}, nil
	}
}
