package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/spendlens/spendlens/pkg/categorize"
	"github.com/spendlens/spendlens/pkg/config"
	"github.com/spendlens/spendlens/pkg/csv"
	"github.com/spendlens/spendlens/pkg/ingest"
	"github.com/spendlens/spendlens/pkg/parser"
	"github.com/spendlens/spendlens/pkg/store"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "spendlens",
	Short: "SpendLens command-line interface",
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

var ingestCmd = &cobra.Command{
	Use:   "ingest [flags] <path>",
	Short: "Ingest bank statements from a file or directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()

		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}

		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		source, _ := cmd.Flags().GetString("source")
		if source == "" {
			source = cfg.DefaultSource
		}
		dump, _ := cmd.Flags().GetBool("dump")

		ingestor, err := buildIngestor(cfg, st, logger)
		if err != nil {
			return err
		}

		matches, err := filepath.Glob(args[0])
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("no files found matching pattern %s", args[0])
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				logger.Warn("failed to stat file", "error", err, "file", match)
				continue
			}
			if info.IsDir() {
				if err := ingestDirectory(cmd.Context(), ingestor, logger, match, source, dump); err != nil {
					logger.Warn("failed to process directory", "error", err, "dir", match)
				}
				continue
			}
			ingestOne(cmd.Context(), ingestor, logger, match, source, dump)
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the category taxonomy",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		categories, err := st.ListCategories(cmd.Context())
		if err != nil {
			return err
		}
		for _, c := range categories {
			fmt.Printf("%-15s %s\n", c.ID, c.DisplayName)
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <source>",
	Short: "Print a source's stored transactions as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		txns, err := st.ListTransactions(cmd.Context(), args[0], 0)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(csv.Create(txns, nil))
		return err
	},
}

var recategorizeCmd = &cobra.Command{
	Use:   "recategorize <transaction-id> <category>",
	Short: "Move a stored transaction to a different category",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Build(cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		st, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		txID, categoryID := args[0], args[1]
		categories, err := st.ListCategories(cmd.Context())
		if err != nil {
			return err
		}
		known := false
		for _, c := range categories {
			if c.ID == categoryID {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown category %q, run 'spendlens categories' for the list", categoryID)
		}
		return st.Recategorize(cmd.Context(), txID, categoryID)
	},
}

func ingestDirectory(ctx context.Context, in *ingest.Ingestor, logger *log.Logger, dir, source string, dump bool) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		ingestOne(ctx, in, logger, path, source, dump)
		return nil
	})
}

func ingestOne(ctx context.Context, in *ingest.Ingestor, logger *log.Logger, path, source string, dump bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read file", "error", err, "file", path)
		return
	}
	result, err := in.Ingest(ctx, data, filepath.Base(path), source)
	if err != nil {
		logger.Warn("ingestion failed", "error", err, "file", path)
		return
	}
	fmt.Printf("%s: %d stored, %d duplicates (batch %s)\n",
		filepath.Base(path), result.Processed, result.Duplicates, result.BatchID)
	for _, w := range result.Warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if dump {
		pp.Println(result.Preview)
	}
}

func buildIngestor(cfg *config.Config, st store.Store, logger *log.Logger) (*ingest.Ingestor, error) {
	rules := categorize.DefaultRules()
	if cfg.RulesFile != "" {
		var err error
		rules, err = categorize.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
	}
	refiner := categorize.NewRefiner(cfg.AnthropicAPIKey, cfg.AnthropicModel, logger)
	return ingest.New(parser.New(logger), categorize.New(rules, logger), refiner, st, logger), nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.StoreBackend == "memory" {
		return store.NewMemory(nil), nil
	}
	return store.NewSQLite(cfg.DBPath)
}

func newLogger() *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Prefix:          "spendlens",
		Level:           level,
	})
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("store_backend", "", "Store backend (sqlite or memory)")
	rootCmd.PersistentFlags().String("db_path", "", "SQLite database path")
	rootCmd.PersistentFlags().String("rules_file", "", "Categorization rules file (YAML)")

	ingestCmd.Flags().String("source", "", "Source account identifier")
	ingestCmd.Flags().Bool("dump", false, "Pretty-print the stored transaction preview")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(recategorizeCmd)
}

func main() {
	_ = gotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
