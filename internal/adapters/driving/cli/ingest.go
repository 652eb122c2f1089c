package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
)

var (
	ingestID       string
	ingestDocType  string
	ingestLanguage string
	ingestSource   string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Run documents through the processing pipeline",
	Long: `Reads each file, masks personally identifying information, appends a
content-addressed revision, segments the text and indexes the segment
embeddings. Re-ingesting unchanged content is a no-op.

Without --id the document ID is derived from the file name, so the same
file always updates the same document.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document ID (single file only)")
	ingestCmd.Flags().StringVar(&ingestDocType, "type", string(domain.DocTypeOther), "document type: decision, statute or other")
	ingestCmd.Flags().StringVar(&ingestLanguage, "lang", "zh-TW", "BCP 47 language tag")
	ingestCmd.Flags().StringVar(&ingestSource, "source-uri", "", "source URI recorded on the document")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("pipeline orchestrator not configured")
	}
	if ingestID != "" && len(args) > 1 {
		return errors.New("--id can only be used with a single file")
	}

	reqs := make([]driving.IngestRequest, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		id := ingestID
		if id == "" {
			id = documentIDFromPath(path)
		}
		sourceURI := ingestSource
		if sourceURI == "" {
			sourceURI = "file://" + path
		}
		reqs = append(reqs, driving.IngestRequest{
			DocumentID: id,
			SourceURI:  sourceURI,
			Collector:  "cli-ingest",
			DocType:    domain.DocType(ingestDocType),
			Language:   ingestLanguage,
			Text:       string(data),
		})
	}

	results, err := orchestrator.ProcessBatch(cmd.Context(), reqs)
	if err != nil {
		return fmt.Errorf("processing batch: %w", err)
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			cmd.Printf("  %s: FAILED: %v\n", res.DocumentID, res.Err)
			continue
		}
		state := "updated"
		if !res.Created {
			state = "unchanged"
		}
		cmd.Printf("  %s: %s (revision %.12s, %d segments, %d spans masked)\n",
			res.DocumentID, state, res.RevisionID, res.Segments, res.Masked)
	}

	cmd.Printf("Processed %d documents, %d failed.\n", len(results), failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(results))
	}
	return nil
}

// documentIDFromPath derives a stable document ID from a file name.
func documentIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
