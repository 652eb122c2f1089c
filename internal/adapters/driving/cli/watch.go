package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
	"github.com/lexica-labs/lexica/internal/logger"
)

var (
	watchDocType string
	watchLang    string
)

// watchSettleDelay is how long a file must stay quiet before it is
// ingested, so partially written files are not picked up.
const watchSettleDelay = 500 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a spool directory and ingest new files",
	Long: `Watches a directory and runs every created or modified text file
through the processing pipeline. The document ID is derived from the
file name, so overwriting a file appends a new revision. Runs until
interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDocType, "type", string(domain.DocTypeOther), "document type for ingested files")
	watchCmd.Flags().StringVar(&watchLang, "lang", "zh-TW", "BCP 47 language tag for ingested files")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if orchestrator == nil {
		return errors.New("pipeline orchestrator not configured")
	}

	dir := args[0]
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("checking watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watching %s: %w", dir, err)
	}

	cmd.Printf("Watching %s, press Ctrl+C to stop.\n", dir)

	// Writers emit bursts of events per file; the file is ingested once
	// its timer expires without further writes.
	pending := make(map[string]*time.Timer)
	ingested := make(chan string)
	ctx := cmd.Context()

	for {
		select {
		case <-ctx.Done():
			return nil

		case path := <-ingested:
			delete(pending, path)
			ingestWatchedFile(cmd, path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if strings.HasPrefix(filepath.Base(path), ".") {
				continue
			}
			if timer, ok := pending[path]; ok {
				timer.Reset(watchSettleDelay)
				continue
			}
			pending[path] = time.AfterFunc(watchSettleDelay, func() {
				select {
				case ingested <- path:
				case <-ctx.Done():
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// ingestWatchedFile runs one spooled file through the pipeline.
// Failures are reported and do not stop the watch loop.
func ingestWatchedFile(cmd *cobra.Command, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		cmd.PrintErrf("  %s: read failed: %v\n", path, err)
		return
	}
	if len(data) == 0 {
		return
	}

	res, err := orchestrator.Process(cmd.Context(), driving.IngestRequest{
		DocumentID: documentIDFromPath(path),
		SourceURI:  "file://" + path,
		Collector:  "cli-watch",
		DocType:    domain.DocType(watchDocType),
		Language:   watchLang,
		Text:       string(data),
	})
	if err != nil {
		cmd.PrintErrf("  %s: %v\n", path, err)
		return
	}
	if res.Err != nil {
		cmd.PrintErrf("  %s: FAILED: %v\n", res.DocumentID, res.Err)
		return
	}

	state := "updated"
	if !res.Created {
		state = "unchanged"
	}
	cmd.Printf("  %s: %s (revision %.12s, %d segments)\n",
		res.DocumentID, state, res.RevisionID, res.Segments)
}
