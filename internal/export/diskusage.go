package export

import (
	"fmt"
	"os"
	"path/filepath"
)

// DiskUsage reports the file count and total bytes under a directory,
// used for the journal directory and any exported Parquet files.
type DiskUsage struct {
	FileCount int
	TotalSize int64
}

// GetDiskUsage walks dir and sums the size of every regular file in it.
// A missing directory reports zero usage rather than an error.
func GetDiskUsage(dir string) (DiskUsage, error) {
	var usage DiskUsage
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		usage.FileCount++
		usage.TotalSize += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return DiskUsage{}, err
	}
	return usage, nil
}

// FormatDiskUsage renders usage as a single human-readable line.
func FormatDiskUsage(label string, usage DiskUsage) string {
	return fmt.Sprintf("%s: %d files, %s", label, usage.FileCount, formatBytes(usage.TotalSize))
}

func formatBytes(b int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)
	switch {
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
