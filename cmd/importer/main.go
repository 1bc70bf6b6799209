package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"kanzlei_check/internal/adapters/observability"
	redisad "kanzlei_check/internal/adapters/redis"
	"kanzlei_check/internal/app"
	"kanzlei_check/internal/shared"
	mysqlrepo "kanzlei_check/internal/storage/mysql"
)

func main() {
	var (
		file   = flag.String("file", "", "pipe-delimited .txt review file")
		strict = flag.Bool("strict", false, "report lines with too few fields instead of dropping them")
		dryRun = flag.Bool("dry-run", false, "parse and validate only, insert nothing")
	)
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if *file == "" {
		log.Fatal().Msg("-file is required")
	}
	if !strings.EqualFold(filepath.Ext(*file), ".txt") {
		log.Fatal().Str("file", *file).Msg("only .txt input is accepted")
	}
	text, err := os.ReadFile(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("read input file failed")
	}

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	imp := app.NewImporter(repo, cache, app.ImportOptions{
		Strict: *strict || cfg.ImportStrict,
		Notify: func(msg string) { log.Warn().Msg(msg) },
	})
	imp.Parse(string(text))

	for _, e := range imp.LineErrors() {
		log.Warn().Msg(e)
	}
	results := imp.Results()
	for i, rec := range imp.Records() {
		if !results[i].Valid {
			log.Warn().
				Int("record", i+1).
				Str("firm", rec.FirmName).
				Strs("errors", results[i].Errors).
				Msg("invalid record")
		}
	}
	log.Info().Int("records", len(imp.Records())).Msg("parse ok")

	if *dryRun {
		return
	}

	out, err := imp.Import(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("import failed")
	}
	observability.ObserveImport("inserted", out.Inserted)
	observability.ObserveImport("invalid", out.Invalid)
	observability.ObserveImport("missing_firm", len(out.MissingFirms))

	log.Info().
		Int("inserted", out.Inserted).
		Int("invalid", out.Invalid).
		Strs("missing_firms", out.MissingFirms).
		Msg("import completed")
}
