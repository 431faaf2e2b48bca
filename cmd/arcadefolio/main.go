package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/arcadefolio/arcadefolio/internal/config"
	"github.com/arcadefolio/arcadefolio/internal/infra/cache"
	"github.com/arcadefolio/arcadefolio/internal/infra/database"
	"github.com/arcadefolio/arcadefolio/internal/infra/repository"
	"github.com/arcadefolio/arcadefolio/internal/present/rest"
	restmw "github.com/arcadefolio/arcadefolio/internal/present/rest/middleware"
	"github.com/arcadefolio/arcadefolio/internal/service"
	"github.com/arcadefolio/arcadefolio/internal/trace"
	"github.com/arcadefolio/arcadefolio/internal/usecase"
)

func main() {
	var configPath string
	var seed bool
	flag.StringVar(&configPath, "c", "config.yaml", "path to config file")
	flag.BoolVar(&seed, "seed", false, "insert starter content into empty collections")
	flag.Parse()

	conf, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	if seed {
		if err := database.Seed(db); err != nil {
			slog.Error("Failed to seed database", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, conf.Server.RedisPassword, conf.Server.RedisDB)

	listCache := cache.New(conf.Cache)
	resourceRepo := repository.NewResourceRepository(db)
	signal := service.NewSignalService(rdb)
	auth := service.NewAuthService(conf.Admin)
	resource := usecase.NewResourceUsecase(resourceRepo, listCache, signal, conf.Cache.TTL())

	e := echo.New()
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	if conf.Server.EnableTrace {
		provider, err := trace.Setup(context.Background(), conf.Server.TraceEndpoint)
		if err != nil {
			slog.Error("Failed to set up tracing", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer func() {
			_ = provider.Shutdown(context.Background())
		}()
		e.Use(otelecho.Middleware("arcadefolio"))
	}

	authmw := restmw.NewAuthMiddleware(auth)
	limiter := restmw.NewRedisLimiter(rdb, "rl:", conf.RateLimit.Limit(), conf.RateLimit.Window())
	throttle := restmw.NewThrottleMiddleware(limiter)

	h := rest.NewHandler(db, resource, auth, signal)
	h.RegisterRoutes(e, authmw, throttle)

	e.Logger.Fatal(e.Start(conf.Server.Listen))
}
