package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/unlockr/unlockr/internal/app"
	"github.com/unlockr/unlockr/internal/domain"
)

// gatherPaths merges explicit file arguments with a non-recursive,
// case-insensitive *.pdf listing of inputDir, then deduplicates cleaned
// paths preserving first-seen order.
func gatherPaths(args []string, inputDir string) ([]string, error) {
	paths := append([]string(nil), args...)
	if inputDir != "" {
		entries, err := os.ReadDir(inputDir)
		if err != nil {
			return nil, fmt.Errorf("input directory %s: %w", inputDir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !domain.IsPDFName(e.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(inputDir, e.Name()))
		}
	}
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		c := filepath.Clean(p)
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		unique = append(unique, c)
	}
	return unique, nil
}

// runUnlock processes every gathered path through the service and writes
// unlocked artifacts into the output directory. One bad file never aborts
// the run; the command fails only if nothing was specified or if any item
// ended in failure (non-zero exit for scripting).
func runUnlock(cmd *cobra.Command, svc *app.Service, args []string) error {
	paths, err := gatherPaths(args, inputDir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no PDF files specified, see --help for usage")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Files to process: %d\n", len(paths))
	fmt.Fprintf(out, "Output directory: %s\n", outputDir)

	success, failed := 0, 0
	for _, p := range paths {
		name := filepath.Base(p)
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			fmt.Fprintf(out, "  FAIL %s: %v\n", name, readErr)
			failed++
			continue
		}
		res, batchErr := svc.ProcessBatch(cmd.Context(), []app.UploadItem{{Name: name, Data: data}}, password)
		if batchErr != nil {
			fmt.Fprintf(out, "  FAIL %s: %v\n", name, batchErr)
			failed++
			continue
		}
		o := res.Outcomes[0]
		if !o.Success {
			fmt.Fprintf(out, "  FAIL %s: %v\n", name, outcomeText(o.Err))
			failed++
			continue
		}
		target := filepath.Join(outputDir, o.ArtifactName)
		if writeErr := os.WriteFile(target, res.Artifacts[0].Data, 0o644); writeErr != nil {
			fmt.Fprintf(out, "  FAIL %s: %v\n", name, writeErr)
			failed++
			continue
		}
		fmt.Fprintf(out, "  OK   %s -> %s\n", name, target)
		success++
	}

	fmt.Fprintf(out, "Results: %d succeeded, %d failed\n", success, failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, success+failed)
	}
	return nil
}

// outcomeText renders per-item failures for the console.
func outcomeText(err error) string {
	switch {
	case errors.Is(err, domain.ErrWrongPassword):
		return "wrong password"
	case errors.Is(err, domain.ErrNotPDF):
		return "not a PDF file"
	case err != nil:
		return err.Error()
	default:
		return "unknown failure"
	}
}
