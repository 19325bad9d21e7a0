package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/foresight/internal/evidence"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Index text documents as forecast evidence",
	Long: `Walks a directory, splits matching text files into passages and adds them to
the evidence index. Use --doctrine to tag passages as source material for a
doctrine pack; its agent then cites them in council analyses.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringSlice("include", nil, "glob patterns to include (default **/*.txt, **/*.md)")
	ingestCmd.Flags().StringSlice("exclude", nil, "glob patterns to exclude")
	ingestCmd.Flags().String("doctrine", "", "doctrine pack id to tag passages with")
	ingestCmd.Flags().Int("chunk-size", evidence.DefaultChunkSize, "approximate passage length in characters")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	start := time.Now()

	ws, err := openWorkspace(nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	store, err := ws.evidenceStore(ctx)
	if err != nil {
		return err
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	doctrineID, _ := cmd.Flags().GetString("doctrine")
	chunkSize, _ := cmd.Flags().GetInt("chunk-size")

	stats, err := evidence.Ingest(ctx, store, args[0], evidence.IngestOptions{
		Include:    include,
		Exclude:    exclude,
		DoctrineID: doctrineID,
		ChunkSize:  chunkSize,
		OnFile: func(path string, chunks int) {
			logger.Debug("indexed file", "path", path, "passages", chunks)
		},
	})
	if err != nil {
		return fmt.Errorf("ingesting %s: %w", args[0], err)
	}

	if err := store.Persist(ctx, ws.cfg.EvidenceDir()); err != nil {
		return fmt.Errorf("saving evidence index: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d passages from %d files in %s (index now holds %d).\n",
		stats.Passages, stats.Files, time.Since(start).Round(time.Millisecond), store.Count())
	return nil
}
