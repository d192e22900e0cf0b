package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"taxem/internal/classify"
	"taxem/internal/fileutil"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// Writer renders one outcome to w.
type Writer func(w io.Writer, out classify.Outcome) error

type registration struct {
	suffix string
	write  Writer
}

var writers = map[string]registration{
	FormatCSV:  {suffix: "_classification.csv", write: WriteCSV},
	FormatJSON: {suffix: "_classification.json", write: WriteJSON},
	FormatText: {suffix: "_combined.txt", write: WriteText},
}

// Formats lists registered format names in sorted order.
func Formats() []string {
	names := make([]string, 0, len(writers))
	for name := range writers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Write renders out in the named format.
func Write(format string, w io.Writer, out classify.Outcome) error {
	reg, ok := writers[format]
	if !ok {
		return fmt.Errorf("unknown report format %q (no writer registered)", format)
	}
	return reg.write(w, out)
}

// Path returns the file written for format under prefix.
func Path(prefix, format string) (string, error) {
	reg, ok := writers[format]
	if !ok {
		return "", fmt.Errorf("unknown report format %q (no writer registered)", format)
	}
	return prefix + reg.suffix, nil
}

// WriteAll writes every registered format beside prefix and returns the paths
// written, in format order. The first failure aborts the remaining formats.
func WriteAll(prefix string, out classify.Outcome) ([]string, error) {
	formats := Formats()
	paths := make([]string, 0, len(formats))
	for _, format := range formats {
		path, err := Path(prefix, format)
		if err != nil {
			return paths, err
		}
		err = fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
			return Write(format, w, out)
		})
		if err != nil {
			return paths, fmt.Errorf("write %s report: %w", format, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// EnsureParent creates the directory that will hold prefix's outputs.
func EnsureParent(prefix string) error {
	dir := parentDir(prefix)
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	return nil
}

func parentDir(prefix string) string {
	dir := filepath.Dir(prefix)
	if dir == "." {
		return ""
	}
	return dir
}
