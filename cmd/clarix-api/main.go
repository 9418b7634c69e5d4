package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	recoverware "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/migrate"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/clarix-app/clarix-api"
	"github.com/clarix-app/clarix-api/middleware/jwtware"
	"github.com/clarix-app/clarix-api/provider/abacatepay"
	"github.com/clarix-app/clarix-api/provider/supabase"
)

var version = "dev"

type config struct {
	Port        string
	DatabaseDSN string
	Debug       bool

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	AbacateBaseURL string
	AbacateAPIKey  string

	CORSOrigins string
	MigrateDB   bool
}

func loadConfig() config {
	// Missing .env is fine; real deployments use process env.
	_ = godotenv.Load()

	cfg := config{
		Port:               envOr("PORT", "8000"),
		DatabaseDSN:        os.Getenv("DATABASE_URL"),
		Debug:              os.Getenv("DEBUG") == "true",
		SupabaseURL:        os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:    os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseServiceKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
		SupabaseJWTSecret:  os.Getenv("SUPABASE_JWT_SECRET"),
		AbacateBaseURL:     envOr("ABACATEPAY_BASE_URL", "https://api.abacatepay.com"),
		AbacateAPIKey:      os.Getenv("ABACATEPAY_API_KEY"),
		CORSOrigins:        envOr("CORS_ORIGINS", "http://localhost:3000"),
		MigrateDB:          os.Getenv("MIGRATE_DB") == "true",
	}

	return cfg
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := loadConfig()

	level := glog.Info
	if cfg.Debug {
		level = glog.Debug
	}

	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(level),
		glog.WithName("clarix"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("app")

	db, err := openDatabase(cfg.DatabaseDSN)
	if err != nil {
		logger.Error("could not open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.MigrateDB {
		if err := runMigrations(db, lgr.GetLogger("migrate")); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
	}

	backend, err := supabase.NewClient(supabase.Config{
		BaseURL:        cfg.SupabaseURL,
		AnonKey:        cfg.SupabaseAnonKey,
		ServiceRoleKey: cfg.SupabaseServiceKey,
	})
	if err != nil {
		logger.Error("could not create auth backend client", "error", err)
		os.Exit(1)
	}

	payments := abacatepay.NewClient(abacatepay.Config{
		BaseURL: cfg.AbacateBaseURL,
		APIKey:  cfg.AbacateAPIKey,
	})
	if !payments.Enabled() {
		logger.Warn("payment customer integration disabled, no api key")
	}

	jwksURL := strings.TrimRight(cfg.SupabaseURL, "/") + "/auth/v1/.well-known/jwks.json"
	verifier := clarix.NewVerifier(cfg.SupabaseJWTSecret, jwksURL,
		clarix.WithVerifierLogger(lgr.GetLogger("verifier")),
	)

	guard := jwtware.New(jwtware.Config{
		Verifier: jwtware.VerifierFunc(func(raw string) (jwtware.AuthClaims, error) {
			return verifier.Verify(raw)
		}),
	})

	repo := clarix.NewRepositoryManager(db)
	repo.MustValidate()

	controller := clarix.NewAPIController(
		clarix.WithControllerHandlers(repo, backend, payments, lgr.GetLogger("api"),
			clarix.NewLogActivitySink(lgr.GetLogger("activity"))),
		clarix.WithControllerGuard(guard),
		clarix.WithControllerLogger(lgr.GetLogger("api")),
		clarix.WithControllerVersion(version),
		clarix.WithControllerDebug(cfg.Debug),
	)

	app := fiber.New(fiber.Config{
		AppName:               "clarix-api",
		DisableStartupMessage: !cfg.Debug,
	})

	app.Use(recoverware.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(requestLogger(lgr.GetLogger("http")))

	controller.RegisterRoutes(app)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started", "port", cfg.Port, "version", version)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	<-ch

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(time.Second * 10); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

// runMigrations applies the embedded SQL migrations. Gated behind
// MIGRATE_DB so multi-instance deployments can run them from a single job.
func runMigrations(db *bun.DB, logger glog.Logger) error {
	sub, err := fs.Sub(clarix.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		logger.Info("database schema up to date")
	} else {
		logger.Info("applied migrations", "group", group.String())
	}

	return nil
}

// openDatabase connects to postgres for real deployments, or sqlite when
// the DSN has no postgres scheme, which local development uses.
func openDatabase(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

func requestLogger(logger glog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
		)

		return err
	}
}
