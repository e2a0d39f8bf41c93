package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coolbeans/justel/pkg/batch"
	"github.com/coolbeans/justel/pkg/config"
	"github.com/coolbeans/justel/pkg/diag"
	"github.com/coolbeans/justel/pkg/document"
	"github.com/coolbeans/justel/pkg/hierarchy"
	"github.com/coolbeans/justel/pkg/pattern"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "justel",
		Short: "Belgian consolidated legislation parser",
		Long: `Justel turns converted Justel documents (laws, decrees, ordinances and
royal or ministerial decrees) into structured JSON records:

  - a tree of Livre / Titre / Chapitre / Section / Sous-section / Annexe
    divisions with articles as leaves
  - per article: text, footnotes, inline citations, numbered provisions,
    repeal status and regional variant
  - document metadata, preamble and modification history`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "Log format: text or json")
	rootCmd.PersistentFlags().String("vocabulary-dir", "", "Directory of extra vocabulary YAML files")

	rootCmd.AddCommand(parseCmd())
	rootCmd.AddCommand(batchCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(tocCmd())
	rootCmd.AddCommand(vocabCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration and applies the persistent flags,
// then installs the configured logger as the default one.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if format, _ := cmd.Flags().GetString("log-format"); format != "" {
		cfg.Log.Format = format
	}
	if dir, _ := cmd.Flags().GetString("vocabulary-dir"); dir != "" {
		cfg.Vocabulary.Dir = dir
	}
	if cmd.Flags().Lookup("tree-source") != nil {
		if source, _ := cmd.Flags().GetString("tree-source"); source != "" {
			cfg.Output.TreeSource = source
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.SetDefault(cfg.NewLogger())
	return cfg, nil
}

// newRegistry loads the configured vocabularies. Without a directory the
// built-in vocabulary is used.
func newRegistry(cfg *config.Config) (*pattern.Registry, error) {
	if cfg.Vocabulary.Dir == "" {
		return pattern.NewRegistry(), nil
	}
	registry, err := pattern.NewRegistryWithDirectory(cfg.Vocabulary.Dir)
	if err != nil {
		return nil, fmt.Errorf("loading vocabularies: %w", err)
	}
	return registry, nil
}

func newEngine(cfg *config.Config, registry *pattern.Registry) *document.Engine {
	return document.NewEngine(document.Options{
		TreeSource: cfg.TreeSource(),
		Matchers:   registry,
		Logger:     slog.Default(),
	})
}

func newRunner(cfg *config.Config, engine *document.Engine) *batch.Runner {
	return batch.NewRunner(engine, batch.Options{
		Workers:         cfg.Batch.Workers,
		DocumentTimeout: cfg.Batch.DocumentTimeout,
		OutputDir:       cfg.Batch.OutputDir,
		Pretty:          cfg.Output.Pretty,
		Logger:          slog.Default(),
	})
}

func parseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse FILE",
		Short: "Parse one converted document",
		Long: `Parse one converted document and print or write its JSON record.

Example:
  justel parse 2004070837.md
  justel parse 2004070837.md -o 2004070837.json --pretty=false
  justel parse 2004070837.md --tree-source toc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			output, _ := cmd.Flags().GetString("output")
			if cmd.Flags().Changed("pretty") {
				cfg.Output.Pretty, _ = cmd.Flags().GetBool("pretty")
			}
			showWarnings, _ := cmd.Flags().GetBool("warnings")

			registry, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Batch.DocumentTimeout)
			defer cancel()
			record, err := newEngine(cfg, registry).ProcessContext(ctx, args[0], content)
			if err != nil {
				return err
			}

			if output != "" {
				if err := batch.WriteRecord(output, record, cfg.Output.Pretty); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Wrote %s (%d articles, %d warnings)\n",
					output, record.ExtractionMetadata.Statistics.Articles, len(record.ExtractionMetadata.Warnings))
			} else {
				encoder := json.NewEncoder(os.Stdout)
				if cfg.Output.Pretty {
					encoder.SetIndent("", "  ")
				}
				if err := encoder.Encode(record); err != nil {
					return fmt.Errorf("failed to encode record: %w", err)
				}
			}

			if showWarnings {
				printWarnings(record.ExtractionMetadata.Warnings)
			}
			return nil
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().Bool("pretty", true, "Indent the JSON output")
	cmd.Flags().String("tree-source", "", "Tree source: content, toc or auto")
	cmd.Flags().Bool("warnings", false, "Print recovered warnings to stderr")
	return cmd
}

func printWarnings(warnings []diag.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(os.Stderr, "\nWarnings (%d):\n", len(warnings))
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "  - %s\n", w)
	}
}

func batchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch DIR",
		Short: "Parse every document of a directory",
		Long: `Parse every document of a directory with a pool of workers.

Each document runs under its own deadline. A document that fails or times
out is reported and the run moves on. A report.json summarizing the run is
written next to the records.

Example:
  justel batch converted/ -o records/ --workers 8 --timeout 1m`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyBatchFlags(cmd, cfg)

			registry, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			jobs, err := batch.Discover(args[0], cfg.Batch.InputGlob)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				return fmt.Errorf("no documents matching %q in %s", cfg.Batch.InputGlob, args[0])
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			report := newRunner(cfg, newEngine(cfg, registry)).Run(ctx, jobs)
			fmt.Print(batch.FormatReport(report))

			reportPath := filepath.Join(cfg.Batch.OutputDir, "report.json")
			if err := report.WriteJSON(reportPath); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", reportPath)

			if report.Succeeded == 0 && report.Failed > 0 {
				return fmt.Errorf("all %d documents failed", report.Failed)
			}
			return nil
		},
	}

	addBatchFlags(cmd)
	return cmd
}

func addBatchFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Output directory for JSON records")
	cmd.Flags().Int("workers", 0, "Number of documents parsed concurrently")
	cmd.Flags().Duration("timeout", 0, "Deadline for a single document")
	cmd.Flags().String("glob", "", "File name pattern of the documents")
	cmd.Flags().String("tree-source", "", "Tree source: content, toc or auto")
	cmd.Flags().Bool("pretty", true, "Indent the JSON output")
}

func applyBatchFlags(cmd *cobra.Command, cfg *config.Config) {
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		cfg.Batch.OutputDir = output
	}
	if workers, _ := cmd.Flags().GetInt("workers"); workers > 0 {
		cfg.Batch.Workers = workers
	}
	if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
		cfg.Batch.DocumentTimeout = timeout
	}
	if glob, _ := cmd.Flags().GetString("glob"); glob != "" {
		cfg.Batch.InputGlob = glob
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Output.Pretty, _ = cmd.Flags().GetBool("pretty")
	}
}

func watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Parse documents as they appear in a directory",
		Long: `Watch a directory and parse every new or changed document.

Documents already present are parsed first. Content that did not change
is not parsed again. When a vocabulary directory is configured, edits to
its YAML files take effect for the next document without a restart.

Example:
  justel watch converted/ -o records/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			applyBatchFlags(cmd, cfg)

			registry, err := newRegistry(cfg)
			if err != nil {
				return err
			}
			if cfg.Vocabulary.Dir != "" {
				registry.SetOnChange(func(event string, matcher *pattern.Matcher) {
					slog.Info("vocabulary reloaded", "event", event, "regions", len(matcher.Regions().Names()))
				})
				if err := registry.Watch(); err != nil {
					return err
				}
				defer registry.StopWatch()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			watcher := batch.NewWatcher(newRunner(cfg, newEngine(cfg, registry)), args[0], cfg.Batch.InputGlob)
			watcher.OnEntry = func(entry batch.Entry) {
				line := fmt.Sprintf("%-9s %s", entry.Status, filepath.Base(entry.Source))
				if entry.Error != "" {
					line += " error: " + entry.Error
				}
				fmt.Println(line)
			}

			fmt.Printf("Watching %s for %s (Ctrl+C to stop)\n", args[0], cfg.Batch.InputGlob)
			return watcher.Run(ctx)
		},
	}

	addBatchFlags(cmd)
	return cmd
}

func tocCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toc FILE",
		Short: "Print the division outline of a document",
		Long: `Print the division outline of a document. Article leaves marked with
"+" carry content, leaves marked with "-" found no matching article.

Example:
  justel toc 2004070837.md
  justel toc 2004070837.md --tree-source toc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			record, err := newEngine(cfg, registry).ProcessContext(cmd.Context(), args[0], content)
			if err != nil {
				return err
			}

			fmt.Print(hierarchy.Outline(record.DocumentHierarchy))
			stats := record.ExtractionMetadata.Statistics
			fmt.Printf("\n%d articles extracted, %d placed, %d empty leaves\n",
				stats.ArticlesExtracted, stats.Articles, stats.UnclaimedLeaves)
			return nil
		},
	}

	cmd.Flags().String("tree-source", "", "Tree source: content, toc or auto")
	return cmd
}

func vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vocab",
		Short: "Print the effective region and document type vocabulary",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			registry, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			vocabulary := registry.Matcher().Vocabulary()
			fmt.Printf("Vocabulary %s %s (%d extra files loaded)\n\n", vocabulary.Name, vocabulary.Version, registry.Count())
			fmt.Println("Regions:")
			for _, region := range vocabulary.Regions {
				fmt.Printf("  %-12s %s\n", region.Canonical, strings.Join(region.Aliases, ", "))
			}
			fmt.Println("\nDocument types:")
			for _, segment := range sortedKeys(vocabulary.DocumentTypes) {
				fmt.Printf("  %-12s %s\n", segment, vocabulary.DocumentTypes[segment])
			}
			return nil
		},
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
