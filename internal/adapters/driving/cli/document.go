package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/lexica/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect stored documents",
	Long:  `List documents, walk revision histories, diff revisions and purge.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentHistoryCmd = &cobra.Command{
	Use:   "history [doc-id]",
	Short: "Show a document's revision history",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentHistory,
}

var documentDiffCmd = &cobra.Command{
	Use:   "diff [doc-id] [from-revision] [to-revision]",
	Short: "Diff two revisions of a document",
	Long:  `Prints the line-level edit script between two revisions. Either revision may be "latest".`,
	Args:  cobra.ExactArgs(3),
	RunE:  runDocumentDiff,
}

var documentSegmentsCmd = &cobra.Command{
	Use:   "segments [doc-id] [revision]",
	Short: "Show the segments of a revision",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runDocumentSegments,
}

var documentStatusCmd = &cobra.Command{
	Use:   "status [doc-id]",
	Short: "Show a document's processing state",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentStatus,
}

var documentPurgeCmd = &cobra.Command{
	Use:   "purge [doc-id]",
	Short: "Remove a document and all dependent state",
	Long: `Removes the document, its revisions, mask audit, segments, embeddings
and index entries. This is irreversible.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentPurge,
}

// purgeConfirm is a flag for the purge command.
var purgeConfirm bool

func init() {
	documentPurgeCmd.Flags().BoolVar(&purgeConfirm, "yes", false, "confirm the purge")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentHistoryCmd)
	documentCmd.AddCommand(documentDiffCmd)
	documentCmd.AddCommand(documentSegmentsCmd)
	documentCmd.AddCommand(documentStatusCmd)
	documentCmd.AddCommand(documentPurgeCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents stored.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s (%s, %s)\n", docs[i].ID, docs[i].DocType, docs[i].Language)
		if docs[i].SourceURI != "" {
			cmd.Printf("    Source: %s\n", docs[i].SourceURI)
		}
	}
	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Type:      %s\n", doc.DocType)
	cmd.Printf("  Language:  %s\n", doc.Language)
	cmd.Printf("  Source:    %s\n", doc.SourceURI)
	if doc.Collector != "" {
		cmd.Printf("  Collector: %s\n", doc.Collector)
	}
	cmd.Printf("  Created:   %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentHistory(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	infos, err := documentService.History(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting history: %w", err)
	}

	if len(infos) == 0 {
		cmd.Printf("No revisions for document: %s\n", args[0])
		return nil
	}

	cmd.Printf("History of %s:\n\n", args[0])
	for _, info := range infos {
		cmd.Printf("  #%d %.12s\n", info.Revision.Sequence, info.Revision.RevisionID)
		cmd.Printf("     Created:  %s\n", info.Revision.CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("     Segments: %d, masked spans: %d\n", info.Segments, info.MaskedSpans)
	}
	return nil
}

func runDocumentDiff(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ops, err := documentService.Diff(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return fmt.Errorf("diffing revisions: %w", err)
	}

	changed := false
	for _, op := range ops {
		switch op.Kind {
		case domain.DiffEqual:
			continue
		case domain.DiffInsert:
			changed = true
			for _, line := range op.Lines {
				cmd.Printf("+ %s\n", line)
			}
		case domain.DiffDelete:
			changed = true
			for _, line := range op.Lines {
				cmd.Printf("- %s\n", line)
			}
		case domain.DiffReplace:
			changed = true
			for _, line := range op.Lines {
				cmd.Printf("~ %s\n", line)
			}
		}
	}
	if !changed {
		cmd.Println("Revisions are identical.")
	}
	return nil
}

func runDocumentSegments(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	revisionID := "latest"
	if len(args) > 1 {
		revisionID = args[1]
	}

	segs, err := documentService.Segments(cmd.Context(), args[0], revisionID)
	if err != nil {
		return fmt.Errorf("getting segments: %w", err)
	}

	if len(segs) == 0 {
		cmd.Println("Revision not yet segmented.")
		return nil
	}

	for _, seg := range segs {
		cmd.Printf("  [%d] %s (%s)\n", seg.Ordinal, seg.ID, seg.Type)
		cmd.Printf("      %s\n", strings.TrimRight(seg.Text, "\n"))
		printSegmentMetadata(cmd, seg.Metadata)
	}
	return nil
}

// printSegmentMetadata prints the non-empty extracted entities.
func printSegmentMetadata(cmd *cobra.Command, meta domain.SegmentMetadata) {
	if len(meta.Citations) > 0 {
		cmd.Printf("      Citations: %s\n", strings.Join(meta.Citations, ", "))
	}
	if len(meta.LawRefs) > 0 {
		cmd.Printf("      Law refs:  %s\n", strings.Join(meta.LawRefs, ", "))
	}
	if len(meta.Parties) > 0 {
		cmd.Printf("      Parties:   %s\n", strings.Join(meta.Parties, ", "))
	}
	if len(meta.Dates) > 0 {
		cmd.Printf("      Dates:     %s\n", strings.Join(meta.Dates, ", "))
	}
	if len(meta.LegalTerms) > 0 {
		cmd.Printf("      Terms:     %s\n", strings.Join(meta.LegalTerms, ", "))
	}
}

func runDocumentStatus(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("pipeline orchestrator not configured")
	}

	rec, err := orchestrator.Status(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("getting status: %w", err)
	}

	cmd.Printf("Document: %s\n\n", rec.DocumentID)
	cmd.Printf("  Status:   %s\n", rec.Status)
	cmd.Printf("  Attempts: %d\n", rec.Attempts)
	if rec.Stage != "" {
		cmd.Printf("  Stage:    %s\n", rec.Stage)
	}
	if rec.RevisionID != "" {
		cmd.Printf("  Revision: %.12s\n", rec.RevisionID)
	}
	if rec.LastError != "" {
		cmd.Printf("  Error:    %s\n", rec.LastError)
	}
	cmd.Printf("  Updated:  %s\n", rec.UpdatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runDocumentPurge(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}
	if !purgeConfirm {
		return errors.New("purge is irreversible, re-run with --yes to confirm")
	}

	if err := documentService.Purge(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("purging document: %w", err)
	}

	cmd.Printf("Document %s purged.\n", args[0])
	return nil
}
