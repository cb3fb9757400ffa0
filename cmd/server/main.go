package main

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/subosito/gotenv"

	"github.com/spendlens/spendlens/pkg/categorize"
	"github.com/spendlens/spendlens/pkg/config"
	"github.com/spendlens/spendlens/pkg/ingest"
	"github.com/spendlens/spendlens/pkg/parser"
	"github.com/spendlens/spendlens/pkg/server"
	"github.com/spendlens/spendlens/pkg/store"
)

func main() {
	_ = gotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "spendlens",
	})

	flags := pflag.NewFlagSet("server", pflag.ExitOnError)
	cfgFile := flags.String("config", "", "Config file path")
	flags.String("listen_addr", "", "Listen address")
	flags.String("store_backend", "", "Store backend (sqlite or memory)")
	flags.String("db_path", "", "SQLite database path")
	flags.String("rules_file", "", "Categorization rules file (YAML)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		logger.Fatal("failed to parse flags", "err", err)
	}

	cfg, err := config.Build(*cfgFile, flags)
	if err != nil {
		logger.Fatal("failed to build config", "err", err)
	}

	st, err := openStore(cfg)
	if err != nil {
		logger.Fatal("failed to open store", "err", err)
	}
	defer st.Close()

	rules := categorize.DefaultRules()
	if cfg.RulesFile != "" {
		rules, err = categorize.LoadRules(cfg.RulesFile)
		if err != nil {
			logger.Fatal("failed to load rules", "file", cfg.RulesFile, "err", err)
		}
	}

	refiner := categorize.NewRefiner(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger)
	ingestor := ingest.New(parser.New(logger), categorize.New(rules, logger), refiner, st, logger)

	srv := server.New(logger, ingestor, st)
	if err := srv.Start(cfg.ListenAddr); err != nil {
		logger.Fatal("server error", "err", err)
	}
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == "memory" {
		return store.NewMemory(nil), nil
	}
	return store.NewSQLite(cfg.DBPath)
}
