package storage

import (
	"io/fs"
	"os"
	"path/filepath"
)

// Usage is the on-disk footprint of a project's stores.
type Usage struct {
	Database int64 `json:"database_bytes"`
	Index    int64 `json:"index_bytes"`
}

// Total returns the combined size in bytes.
func (u Usage) Total() int64 {
	return u.Database + u.Index
}

// DiskUsage measures the SQLite database at dbPath, including its -wal and -shm sidecar
// files, and the full-text index directory at indexPath. Missing paths count as zero.
func DiskUsage(dbPath, indexPath string) (Usage, error) {
	var u Usage
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		n, err := pathSize(p)
		if err != nil {
			return Usage{}, err
		}
		u.Database += n
	}
	n, err := pathSize(indexPath)
	if err != nil {
		return Usage{}, err
	}
	u.Index = n
	return u, nil
}

// pathSize returns the size of a file, or the recursive size of a directory.
func pathSize(p string) (int64, error) {
	if p == "" {
		return 0, nil
	}
	info, err := os.Stat(p)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if !info.IsDir() {
		return info.Size(), nil
	}
	var total int64
	err = filepath.WalkDir(p, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		total += fi.Size()
		return nil
	})
	return total, err
}
