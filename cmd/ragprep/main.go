// ragprep prepares content for retrieval pipelines: it chunks markdown
// into embedding-ready records and precomputes gallery thumbnails.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/driveshelf/driveshelf/internal/catalog"
	"github.com/driveshelf/driveshelf/internal/config"
	"github.com/driveshelf/driveshelf/internal/gallery"
	"github.com/driveshelf/driveshelf/internal/ingest"
	"github.com/driveshelf/driveshelf/internal/logging"
	"github.com/driveshelf/driveshelf/internal/remote"
)

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"

	jsonOutput bool
	sourceDir  string
	outputPath string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ragprep",
		Short: "Content preparation for retrieval pipelines",
		Long: `ragprep chunks markdown content into embedding-ready records
(text chunks plus image references with surrounding context) and
upserts them into PostgreSQL or writes them as JSONL. It can also
precompute gallery thumbnails for image content.`,
	}

	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			if jsonOutput {
				printJSON(map[string]string{
					"version": version,
					"commit":  commit,
					"date":    buildDate,
				})
			} else {
				fmt.Printf("ragprep %s (%s, %s)\n", version, commit, buildDate)
			}
		},
	})

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Build chunk records from markdown content",
		Long: `Build reads markdown files either from a local directory (--dir)
or from the configured remote store, chunks them, and writes the
records to PostgreSQL (DATABASE_URL) or to a JSONL file (--out).`,
		RunE: runBuild,
	}
	buildCmd.Flags().StringVar(&sourceDir, "dir", "", "Local directory of markdown files (defaults to the remote catalog)")
	buildCmd.Flags().StringVar(&outputPath, "out", "", "Write records as JSONL to this path instead of PostgreSQL")
	rootCmd.AddCommand(buildCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "thumbs",
		Short: "Precompute gallery thumbnails for remote images",
		RunE:  runThumbs,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	logging.InitDefault()
	defer logging.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	var records []ingest.Record
	var err error

	if sourceDir != "" {
		records, err = ingest.BuildFromDir(sourceDir)
		if err != nil {
			return fmt.Errorf("build from dir: %w", err)
		}
	} else {
		cfg, cerr := config.Load()
		if cerr != nil {
			return cerr
		}
		client, cerr := newRemoteClient(ctx, cfg)
		if cerr != nil {
			return cerr
		}
		locators, werr := catalog.Walk(ctx, client, cfg.RootFolderID, catalog.Options{})
		if werr != nil {
			return fmt.Errorf("walk catalog: %w", werr)
		}
		records, err = ingest.BuildFromCatalog(ctx, client, locators)
		if err != nil {
			return fmt.Errorf("build from catalog: %w", err)
		}
	}

	logging.Info("records built", zap.Int("count", len(records)))

	if outputPath != "" {
		if err := writeJSONL(outputPath, records); err != nil {
			return err
		}
		report(map[string]any{"ok": true, "records": len(records), "out": outputPath},
			"wrote %d records to %s\n", len(records), outputPath)
		return nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required unless --out is given")
	}
	store, err := ingest.NewStore(databaseURL)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	if err := store.Upsert(ctx, records); err != nil {
		return fmt.Errorf("upsert records: %w", err)
	}

	report(map[string]any{"ok": true, "records": len(records)},
		"upserted %d records\n", len(records))
	return nil
}

func runThumbs(cmd *cobra.Command, args []string) error {
	logging.InitDefault()
	defer logging.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	client, err := newRemoteClient(ctx, cfg)
	if err != nil {
		return err
	}

	uploader, ok := client.(gallery.Uploader)
	if !ok {
		return fmt.Errorf("provider %q cannot store thumbnails, use the s3 provider", cfg.Provider)
	}

	locators, err := catalog.Walk(ctx, client, cfg.RootFolderID, catalog.Options{})
	if err != nil {
		return fmt.Errorf("walk catalog: %w", err)
	}

	processor := gallery.NewProcessor(client, uploader)
	processed, err := processor.ProcessAll(ctx, locators)
	if err != nil {
		return fmt.Errorf("process images: %w", err)
	}

	report(map[string]any{"ok": true, "processed": processed},
		"processed %d images\n", processed)
	return nil
}

func newRemoteClient(ctx context.Context, cfg *config.Config) (remote.Client, error) {
	return remote.NewClient(ctx, remote.Config{
		Provider: cfg.Provider,
		Drive: remote.DriveConfig{
			BaseURL:     cfg.DriveBaseURL,
			AccessToken: cfg.DriveAccessToken,
		},
		S3: remote.S3Config{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		},
	})
}

func writeJSONL(path string, records []ingest.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func report(jsonResult map[string]any, format string, args ...any) {
	if jsonOutput {
		printJSON(jsonResult)
		return
	}
	fmt.Printf(format, args...)
}

func printJSON(v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
