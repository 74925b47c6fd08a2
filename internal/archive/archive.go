// Package archive moves the artifacts of a finished or abandoned run out of
// the way so the next run starts from scratch.
package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"codeberg.org/snonux/schemetrans/internal"
)

// ArchiveRun moves the output table and the checkpoint into
// <output dir>/archive/run-<name>-<timestamp>/ and returns that directory.
// Files that do not exist are skipped; it fails if there is nothing to
// archive at all.
func ArchiveRun(outputPath, checkpointPath string) (string, error) {
	var files []string
	for _, path := range []string{outputPath, checkpointPath} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}
	if len(files) == 0 {
		return "", fmt.Errorf("nothing to archive: neither %s nor %s exists", outputPath, checkpointPath)
	}

	archiveDir := filepath.Join(filepath.Dir(outputPath), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
	name := internal.SanitizeFilename(base)

	timestamp := time.Now().Format("20060102-150405")
	runDir := filepath.Join(archiveDir, fmt.Sprintf("run-%s-%s", name, timestamp))

	// Check if archive already exists (unlikely but possible)
	if _, err := os.Stat(runDir); err == nil {
		runDir = filepath.Join(archiveDir, fmt.Sprintf("run-%s-%s", name, internal.GenerateRunID(outputPath)))
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run archive: %w", err)
	}

	for _, path := range files {
		target := filepath.Join(runDir, filepath.Base(path))
		if err := os.Rename(path, target); err != nil {
			return "", fmt.Errorf("failed to archive %s: %w", path, err)
		}
	}

	fmt.Printf("Run archived to: %s\n", runDir)
	return runDir, nil
}
