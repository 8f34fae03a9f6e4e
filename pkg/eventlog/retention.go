package eventlog

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// MaxAge is how long a day's log file is kept.
const MaxAge = 30 * 24 * time.Hour

// Cleanup deletes log files whose date is older than now minus MaxAge and
// returns their names. Files whose name does not parse as a date are never
// touched. Individual removal failures are skipped.
func (w *Writer) Cleanup(now time.Time) ([]string, error) {
	infos, err := afero.ReadDir(w.fs, w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	cutoff := now.Add(-MaxAge)
	var removed []string
	for _, info := range infos {
		name := info.Name()
		if info.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		day, err := time.ParseInLocation(DateLayout, strings.TrimSuffix(name, fileExt), now.Location())
		if err != nil {
			continue
		}
		if !day.Before(cutoff) {
			continue
		}
		if err := w.fs.Remove(filepath.Join(w.dir, name)); err != nil {
			continue
		}
		removed = append(removed, name)
	}
	sort.Strings(removed)
	return removed, nil
}
