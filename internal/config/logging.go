package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const logFilePattern = "alpwiki-*.log"

// SetupLogFile opens a fresh timestamped log file under dir and prunes older
// files down to maxFiles. The caller owns the returned handle.
func SetupLogFile(dir string, maxFiles int) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	if err := pruneLogs(dir, maxFiles-1); err != nil {
		// pruning failure should not block logging
		fmt.Fprintf(os.Stderr, "warning: prune old logs: %v\n", err)
	}

	name := filepath.Join(dir, fmt.Sprintf("alpwiki-%s.log",
		time.Now().Format("2006-01-02T15-04-05")))
	f, err := os.Create(name)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}
	return f, nil
}

// pruneLogs deletes the oldest log files until at most keep remain. The
// timestamp in the file name sorts chronologically, so lexical order is age
// order.
func pruneLogs(dir string, keep int) error {
	files, err := filepath.Glob(filepath.Join(dir, logFilePattern))
	if err != nil {
		return err
	}
	if keep < 0 {
		keep = 0
	}
	if len(files) <= keep {
		return nil
	}

	sort.Strings(files)
	for _, f := range files[:len(files)-keep] {
		if err := os.Remove(f); err != nil {
			return fmt.Errorf("remove %s: %w", f, err)
		}
	}
	return nil
}
