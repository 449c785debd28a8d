// File path: cmd/raglens-ingest/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/raglens/raglens/internal/common"
	"github.com/raglens/raglens/internal/data/orchestrator"
	"github.com/raglens/raglens/internal/ingest"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		filePath   string
		dirPath    string
		useBucket  bool
		indexName  string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "raglens-ingest",
		Short: "Chunk, enrich, embed, and index documents",
		Long: "raglens-ingest runs the full ingestion pipeline over a file, a directory " +
			"tree, or the configured object-store bucket, and uploads the resulting " +
			"chunk documents to the search index.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := common.Logger()
			if err := godotenv.Load(); err != nil {
				logger.Debug("ingest: .env file not loaded", "error", err)
			}
			selected := 0
			for _, set := range []bool{filePath != "", dirPath != "", useBucket} {
				if set {
					selected++
				}
			}
			if selected != 1 {
				return fmt.Errorf("exactly one of --file, --dir, or --bucket required")
			}

			orchCfg := orchestrator.LoadConfig()
			if trimmed := strings.TrimSpace(indexName); trimmed != "" {
				orchCfg.IndexName = trimmed
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			orch, err := orchestrator.New(ctx, orchCfg)
			if err != nil {
				return fmt.Errorf("init orchestrator: %w", err)
			}
			defer orch.Close()

			pipeline := orch.Pipeline()
			if trimmed := strings.TrimSpace(configPath); trimmed != "" {
				pipeCfg, err := ingest.LoadConfigFile(trimmed)
				if err != nil {
					return err
				}
				pipeline = orch.PipelineWithConfig(pipeCfg)
			}

			var reports []ingest.Report
			switch {
			case filePath != "":
				report, err := pipeline.ProcessFile(ctx, filePath)
				if err != nil {
					return err
				}
				reports = []ingest.Report{report}
			case dirPath != "":
				reports, err = pipeline.ProcessDir(ctx, dirPath)
				if err != nil {
					return err
				}
			case useBucket:
				objects := orch.Bucket()
				if objects == nil {
					return fmt.Errorf("no bucket configured; set BUCKET_ENDPOINT")
				}
				reports, err = pipeline.ProcessBucket(ctx, objects)
				if err != nil {
					return err
				}
			}

			total := 0
			for _, report := range reports {
				total += report.Chunks
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d chunks in %s\n", report.FileName, report.Chunks, report.Duration.Round(0))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents (%d chunks) into %s\n", len(reports), total, orchCfg.IndexName)
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "ingest a single document")
	cmd.Flags().StringVar(&dirPath, "dir", "", "ingest every supported document under a directory")
	cmd.Flags().BoolVar(&useBucket, "bucket", false, "ingest every supported object from the configured bucket")
	cmd.Flags().StringVar(&indexName, "index", "", "target search index (defaults to RAGLENS_INDEX_NAME)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML chunking config (max_chunk_tokens, overlap_rate, overlap)")
	return cmd
}
