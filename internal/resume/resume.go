// Package resume locates the resume file attached to outgoing emails.
package resume

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// DefaultDir is the resume folder used when none is configured.
const DefaultDir = "resume"

// Extensions lists the accepted resume file types.
var Extensions = []string{".pdf", ".doc", ".docx"}

// ErrNotFound is returned when the resume folder holds no usable file.
var ErrNotFound = errors.New("no resume found")

// File is a candidate resume.
type File struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Find lists resume files in dir, newest first.
func Find(dir string) ([]File, error) {
	if dir == "" {
		dir = DefaultDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: folder %s does not exist", ErrNotFound, dir)
		}
		return nil, fmt.Errorf("failed to read resume folder: %w", err)
	}

	candidates := lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !e.IsDir() && Supported(e.Name())
	})

	files := make([]File, 0, len(candidates))
	for _, e := range candidates {
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{
			Path:    filepath.Join(dir, e.Name()),
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s (supported: %s)", ErrNotFound, dir, strings.Join(Extensions, ", "))
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Latest returns the most recently modified resume in dir.
func Latest(dir string) (File, error) {
	files, err := Find(dir)
	if err != nil {
		return File{}, err
	}
	return files[0], nil
}

// Supported reports whether name has an accepted resume extension.
func Supported(name string) bool {
	return lo.Contains(Extensions, strings.ToLower(filepath.Ext(name)))
}

// EnsureDir creates the resume folder if needed and reports whether it existed.
func EnsureDir(dir string) (bool, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return true, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("failed to create resume folder: %w", err)
	}
	return false, nil
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
