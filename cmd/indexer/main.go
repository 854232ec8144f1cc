// Command indexer manages the vector collection from the command line.
// It rebuilds the index outside the serving path, so a deploy can ship a new
// catalog without waiting for the first request to pay the embedding cost.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ai "github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai"
	openaiemb "github.com/PrRahil/shl-assessment-recommender/internal/adapter/ai/openai"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/catalog"
	"github.com/PrRahil/shl-assessment-recommender/internal/adapter/observability"
	qdrantcli "github.com/PrRahil/shl-assessment-recommender/internal/adapter/vector/qdrant"
	"github.com/PrRahil/shl-assessment-recommender/internal/config"
	"github.com/PrRahil/shl-assessment-recommender/internal/usecase"
)

// version can be overridden at build time.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "indexer",
	Short: "Build and inspect the assessment vector index",
}

var forceRebuild bool

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Bring the vector collection in line with the catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		indexer, err := buildIndexer()
		if err != nil {
			return err
		}
		if forceRebuild {
			return indexer.Reindex(cmd.Context())
		}
		return indexer.EnsureIndexed(cmd.Context())
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Compare catalog size against the indexed point count",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		store, err := catalog.Load(cfg.CatalogPath, cfg.LegacyCatalogPath)
		if err != nil {
			return err
		}
		qcli := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)
		count, err := qcli.Count(cmd.Context(), cfg.QdrantCollection)
		if err != nil {
			return err
		}
		state := "current"
		if count < store.Len() {
			state = "stale"
		}
		fmt.Printf("catalog: %d records\nindex:   %d points (%s)\n", store.Len(), count, state)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(*cobra.Command, []string) {
		fmt.Printf("indexer version: %s\n", version)
	},
}

func buildIndexer() (*usecase.Indexer, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(observability.SetupLogger(cfg))

	store, err := catalog.Load(cfg.CatalogPath, cfg.LegacyCatalogPath)
	if err != nil {
		return nil, err
	}

	maxElapsed, initial, maxInterval, multiplier := cfg.GetEmbedBackoffConfig()
	embedderBase, err := openaiemb.New(openaiemb.Config{
		APIKey:                 cfg.OpenAIAPIKey,
		BaseURL:                cfg.OpenAIBaseURL,
		Model:                  cfg.EmbeddingsModel,
		BackoffMaxElapsedTime:  maxElapsed,
		BackoffInitialInterval: initial,
		BackoffMaxInterval:     maxInterval,
		BackoffMultiplier:      multiplier,
	})
	if err != nil {
		return nil, err
	}
	embedder := ai.NewEmbedCache(embedderBase, cfg.EmbedCacheSize)
	qcli := qdrantcli.New(cfg.QdrantURL, cfg.QdrantAPIKey)

	return usecase.NewIndexer(store, embedder, qcli, cfg.QdrantCollection, cfg.VectorSize), nil
}

func init() {
	reindexCmd.Flags().BoolVar(&forceRebuild, "force", false, "drop and rebuild even when the index looks current")
	rootCmd.AddCommand(reindexCmd, statusCmd, versionCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		slog.Error("indexer failed", slog.Any("error", err))
		os.Exit(1)
	}
}
