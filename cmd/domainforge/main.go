package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/domainforge/domainforge-core/internal/adapters/driven/bleveengine"
	"github.com/domainforge/domainforge-core/internal/adapters/driven/locallock"
	"github.com/domainforge/domainforge-core/internal/adapters/driven/rediscache"
	"github.com/domainforge/domainforge-core/internal/adapters/driven/redislock"
	"github.com/domainforge/domainforge-core/internal/adapters/driven/segmenter"
	"github.com/domainforge/domainforge-core/internal/adapters/driven/zonefile"
	httpadapter "github.com/domainforge/domainforge-core/internal/adapters/driving/http"
	"github.com/domainforge/domainforge-core/internal/config"
	"github.com/domainforge/domainforge-core/internal/core/ports/driven"
	"github.com/domainforge/domainforge-core/internal/core/ports/driving"
	"github.com/domainforge/domainforge-core/internal/core/services"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "domainforge",
		Short:   "Domain-name search and indexing service",
		Version: version,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newFullBuildCmd())
	root.AddCommand(newDailyDeltaCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newOptimizeCmd())
	return root
}

// lockAndCache wires the distributed lock and result cache from
// cfg.RedisURL, falling back to an in-process lock and no cache when
// Redis is not configured (spec §6: REDIS_URL is optional).
func lockAndCache(cfg config.Config, logger *slog.Logger) (driven.DistributedLock, *rediscache.Cache, httpadapter.Pinger) {
	if cfg.RedisURL == "" {
		logger.Info("REDIS_URL not set, using in-process writer lock and no result cache")
		return locallock.New(), nil, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Warn("invalid REDIS_URL, falling back to in-process lock", "error", err)
		return locallock.New(), nil, nil
	}
	client := redis.NewClient(opts)
	lock := redislock.New(client)
	cache := rediscache.New(client)
	return lock, cache, cache
}

const bytesPerGB = 1024 * 1024 * 1024

// openIndex opens the index at pathOverride (falling back to
// cfg.IndexPath when empty) with heapBytesOverride (falling back to
// cfg.IndexHeapSize when zero), letting each subcommand's --output/
// --index and --heap-gb flags take precedence over the environment.
func openIndex(cfg config.Config, pathOverride string, heapBytesOverride int64) (*bleveengine.Engine, error) {
	path := cfg.IndexPath
	if pathOverride != "" {
		path = pathOverride
	}
	heapBytes := cfg.IndexHeapSize
	if heapBytesOverride > 0 {
		heapBytes = heapBytesOverride
	}
	return bleveengine.Open(path, heapBytes)
}

func newSegmenterClient(cfg config.Config, logger *slog.Logger) driven.Segmenter {
	return segmenter.New(segmenter.Config{
		BaseURL:  cfg.WordSplitterURL,
		Username: cfg.WordSplitterUser,
		Password: cfg.WordSplitterPass,
	}, logger)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP search API",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			index, err := openIndex(cfg, "", 0)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer index.Close()

			lock, cache, cachePinger := lockAndCache(cfg, logger)

			var resultCache driven.ResultCache
			if cache != nil {
				resultCache = cache
			}

			searchSvc := services.NewSearchService(services.SearchServiceConfig{
				Index: index, Cache: resultCache, Logger: logger,
			})

			ingestSvc := services.NewIngestService(services.IngestServiceConfig{
				Index: index, Segmenter: newSegmenterClient(cfg, logger), Lock: lock, Logger: logger,
			})

			server := httpadapter.NewServer(
				httpadapter.Config{Port: cfg.APIPort, Logger: logger},
				searchSvc, ingestSvc, index, cachePinger,
			)
			return server.Start()
		},
	}
}

func newFullBuildCmd() *cobra.Command {
	var inputPath, outputPath string
	var download bool
	var heapGB int
	var commitInterval int

	cmd := &cobra.Command{
		Use:   "full",
		Short: "Build a fresh index from a zone-file additions list",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if download {
				downloader := zonefile.New(cfg.ZonefileAPIURL, cfg.ZonefileToken, logger)
				path, err := downloader.Download(cmd.Context(), zonefile.EndpointFull, os.TempDir())
				if err != nil {
					return fmt.Errorf("download zone file: %w", err)
				}
				inputPath = path
			}
			if inputPath == "" {
				return fmt.Errorf("either --input or --download is required")
			}

			heapBytes := int64(heapGB) * bytesPerGB

			index, err := openIndex(cfg, outputPath, heapBytes)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer index.Close()

			lock, _, _ := lockAndCache(cfg, logger)
			ingestSvc := services.NewIngestService(services.IngestServiceConfig{
				Index: index, Segmenter: newSegmenterClient(cfg, logger), Lock: lock, Logger: logger,
			})

			stats, err := ingestSvc.FullBuild(cmd.Context(), driving.FullBuildOptions{
				InputPath:      inputPath,
				OutputPath:     outputPath,
				HeapBytes:      heapBytes,
				CommitInterval: commitInterval,
				WordBatchSize:  cfg.WordBatchSize,
			})
			if err != nil {
				return err
			}
			logger.Info("full build finished",
				"processed", stats.Processed, "added", stats.Added,
				"rejected", stats.Rejected, "filtered", stats.Filtered)
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Path to an additions zone file")
	cmd.Flags().BoolVar(&download, "download", false, "Download the full zone file before building")
	cmd.Flags().StringVar(&outputPath, "output", "", "Index directory to write, overriding INDEX_PATH")
	cmd.Flags().IntVar(&heapGB, "heap-gb", 4, "Index heap size in GB (passed to the index engine; bleve does not apply it)")
	cmd.Flags().IntVar(&commitInterval, "commit-interval", 1_000_000, "Documents between commits")
	return cmd
}

func newDailyDeltaCmd() *cobra.Command {
	var additionsPath, removalsPath, indexPath string
	var download bool

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Apply a daily add/remove delta to the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if download {
				downloader := zonefile.New(cfg.ZonefileAPIURL, cfg.ZonefileToken, logger)
				addPath, err := downloader.Download(cmd.Context(), zonefile.EndpointDailyAdditions, os.TempDir())
				if err != nil {
					return fmt.Errorf("download additions: %w", err)
				}
				removePath, err := downloader.Download(cmd.Context(), zonefile.EndpointDailyRemovals, os.TempDir())
				if err != nil {
					return fmt.Errorf("download removals: %w", err)
				}
				additionsPath, removalsPath = addPath, removePath
			}

			index, err := openIndex(cfg, indexPath, 0)
			if err != nil {
				return fmt.Errorf("open index: %w", err)
			}
			defer index.Close()

			lock, _, _ := lockAndCache(cfg, logger)
			ingestSvc := services.NewIngestService(services.IngestServiceConfig{
				Index: index, Segmenter: newSegmenterClient(cfg, logger), Lock: lock, Logger: logger,
			})

			stats, err := ingestSvc.DailyDelta(cmd.Context(), driving.DailyDeltaOptions{
				AdditionsPath: additionsPath,
				RemovalsPath:  removalsPath,
				IndexPath:     indexPath,
				WordBatchSize: cfg.WordBatchSize,
			})
			if err != nil {
				return err
			}
			logger.Info("daily delta finished",
				"processed", stats.Processed, "added", stats.Added, "removed", stats.Removed)
			return nil
		},
	}

	cmd.Flags().StringVar(&additionsPath, "adds", "", "Path to an additions zone file")
	cmd.Flags().StringVar(&removalsPath, "removes", "", "Path to a removals zone file")
	cmd.Flags().BoolVar(&download, "download", false, "Download today's delta files before applying")
	cmd.Flags().StringVar(&indexPath, "index", "", "Index directory to update, overriding INDEX_PATH")
	return cmd
}

func newStatsCmd() *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print administrative index statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			index, err := openIndex(cfg, indexPath, 0)
			if err != nil {
				return err
			}
			defer index.Close()

			lock, _, _ := lockAndCache(cfg, logger)
			ingestSvc := services.NewIngestService(services.IngestServiceConfig{Index: index, Lock: lock, Logger: logger})

			stats, err := ingestSvc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			for k, v := range stats {
				fmt.Printf("%s: %v\n", k, v)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index directory to inspect, overriding INDEX_PATH")
	return cmd
}

func newOptimizeCmd() *cobra.Command {
	var indexPath string

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Trigger best-effort index segment compaction",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := slog.Default()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			index, err := openIndex(cfg, indexPath, 0)
			if err != nil {
				return err
			}
			defer index.Close()

			lock, _, _ := lockAndCache(cfg, logger)
			ingestSvc := services.NewIngestService(services.IngestServiceConfig{Index: index, Lock: lock, Logger: logger})
			if err := ingestSvc.Optimize(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("optimize complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&indexPath, "index", "", "Index directory to optimize, overriding INDEX_PATH")
	return cmd
}
