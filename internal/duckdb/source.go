package duckdb

import (
	"os"
	"time"
)

// ReportFile identifies the on-disk report an export was loaded from.
type ReportFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatReport records the size and modification time of the report at path.
func StatReport(path string) (ReportFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ReportFile{}, err
	}
	return ReportFile{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// Unchanged reports whether the file still has the recorded size and
// modification time. Times are compared at microsecond precision, the
// resolution of a stored TIMESTAMP.
func (f ReportFile) Unchanged() bool {
	cur, err := StatReport(f.Path)
	if err != nil {
		return false
	}
	return cur.Size == f.Size && cur.ModTime.Truncate(time.Microsecond).Equal(f.ModTime.Truncate(time.Microsecond))
}
