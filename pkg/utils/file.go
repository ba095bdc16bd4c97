package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FormatFileSize formats file size in human readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// ValidateSourcePath ensures the path names an existing regular file that can be uploaded
func ValidateSourcePath(srcPath string) error {
	info, err := os.Stat(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file '%s' does not exist", srcPath)
		}
		return fmt.Errorf("cannot access file '%s': %w", srcPath, err)
	}
	if info.IsDir() {
		return fmt.Errorf("path '%s' is a directory, please specify a file", srcPath)
	}

	filename := filepath.Base(srcPath)
	if filename == "." || filename == ".." {
		return fmt.Errorf("path '%s' does not specify a filename", srcPath)
	}

	return nil
}
