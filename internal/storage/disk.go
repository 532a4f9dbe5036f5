package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of the stores, in bytes.
type Usage struct {
	Database int64 `json:"database_bytes"`
	Keyword  int64 `json:"keyword_index_bytes"`
	Vector   int64 `json:"vector_index_bytes"`
}

// Total returns the sum of all parts.
func (u Usage) Total() int64 {
	return u.Database + u.Keyword + u.Vector
}

// MeasureUsage sizes the database (with its WAL and shared-memory files), the
// Bleve directory and the vector file.
func MeasureUsage(databasePath, blevePath, vectorPath string) (Usage, error) {
	var u Usage
	var err error
	if u.Database, err = DiskUsageBytes(databasePath, databasePath+"-wal", databasePath+"-shm"); err != nil {
		return u, err
	}
	if u.Keyword, err = DiskUsageBytes(blevePath); err != nil {
		return u, err
	}
	u.Vector, err = DiskUsageBytes(vectorPath)
	return u, err
}

// DiskUsageBytes returns the total size of the given files and directory trees.
// Empty and missing paths count as zero.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		if p == "" {
			continue
		}
		err := filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			total += info.Size()
			return nil
		})
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
	}
	return total, nil
}
