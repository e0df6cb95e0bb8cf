package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ragchat/config"
	"ragchat/internal/adapter/embedding"
	"ragchat/internal/adapter/fs"
	"ragchat/internal/usecase"
)

var indexTestQuery string

var indexCmd = &cobra.Command{
	Use:   "index [corpus-dir]",
	Short: "Build the vector index from a directory of passage files",
	Long: `Build the vector index from pre-segmented passage files.
Each matching file becomes one source; passages are separated by blank
lines. The index is stored in .ragchat/index.db under the data directory.

Examples:
  ragchat index ./corpus
  ragchat index ./corpus --test "What is attention?"`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexTestQuery, "test", "", "run this query against the fresh index and print the top results")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	corpusDir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(corpusDir)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", corpusDir)
	}

	if err := config.EnsureDataDir(rootDir); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		return fmt.Errorf("failed to create embedder: %w", err)
	}

	loader := fs.NewLoader(cfg.Index.Includes, cfg.Index.Excludes)
	indexUC := usecase.NewIndexUseCase(loader, embedder, logger)

	fmt.Printf("Scanning %s...\n", corpusDir)

	var bar *progressbar.ProgressBar
	progress := func(done, total int) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Embedding"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	indexPath := config.IndexDBPath(rootDir)
	stats, err := indexUC.BuildFromDir(corpusDir, indexPath, progress)
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}

	fmt.Printf("\nIndex built:\n")
	fmt.Printf("  Vectors:   %d\n", stats.Vectors)
	fmt.Printf("  Dimension: %d\n", stats.Dimension)
	fmt.Printf("  Model:     %s\n", stats.Model)
	fmt.Printf("\nIndex stored at: %s\n", indexPath)

	if indexTestQuery != "" {
		return runIndexTestQuery(indexTestQuery)
	}
	return nil
}

// runIndexTestQuery retrieves against the fresh index so a build can be
// sanity-checked in one command.
func runIndexTestQuery(query string) error {
	svc, err := newAskService()
	if err != nil {
		return err
	}
	defer svc.close()

	results, err := svc.retriever.Retrieve(context.Background(), query, 3)
	if err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}

	fmt.Printf("\n---- Query demo ----\n")
	for _, r := range results {
		text := r.Passage.Text
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		fmt.Printf("[%.3f] %s#%d: %s\n", r.Score, r.Passage.SourceID, r.Passage.Position, text)
	}
	return nil
}
