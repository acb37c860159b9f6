package monitor

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CleanupRecordings deletes recording segments older than the retention
// period from dir. Only files named record_*.mp4 are considered. It
// returns how many files were removed and how many bytes were freed.
func CleanupRecordings(dir string, retention time.Duration, now time.Time) (int, int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	cutoff := now.Add(-retention)
	removed := 0
	var freed int64

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "record_") || !strings.HasSuffix(name, ".mp4") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			continue
		}
		removed++
		freed += info.Size()
	}

	return removed, freed, nil
}
