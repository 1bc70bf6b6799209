package main

import (
	"database/sql"
	"net/http"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "kanzlei_check/internal/adapters/http_server"
	"kanzlei_check/internal/adapters/observability"
	redisad "kanzlei_check/internal/adapters/redis"
	"kanzlei_check/internal/app"
	"kanzlei_check/internal/shared"
	mysqlrepo "kanzlei_check/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	q := app.NewQueryService(repo, cache, cfg.CacheTTL)
	admin := app.NewAdminService(repo, cache)

	// http
	srv := server.New()
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Q:     q,
		Admin: admin,
		NewImporter: func(opts app.ImportOptions) *app.Importer {
			if cfg.ImportStrict {
				opts.Strict = true
			}
			return app.NewImporter(repo, cache, opts)
		},
		Auth: server.AuthConfig{
			JWTSecret:     cfg.JWTSecret,
			AdminEmail:    cfg.AdminEmail,
			AdminPassHash: cfg.AdminPassHash,
			TokenTTL:      cfg.TokenTTL,
		},
		SubmitRPS:   cfg.SubmitRPS,
		SubmitBurst: cfg.SubmitBurst,
	})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
}
