package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"staticcms/internal/apperr"
	"staticcms/internal/logging"
)

// Candidate content roots inside a cloned site repository, checked in order.
// sample_contents ships with the site template so a fresh clone is browsable
// before any real content exists.
var contentRoots = []string{"contents", "sample_contents"}

// Store reads and writes the content tree of a cloned site repository.
type Store struct {
	logger *logging.AppLogger
	root   string
}

// NewStore creates a Store over the repository checked out at root.
func NewStore(logger *logging.AppLogger, root string) *Store {
	return &Store{logger: logger, root: root}
}

// ContentRoot returns the directory Scan reads from, or an error when the
// repository contains neither a contents nor a sample_contents directory.
func (s *Store) ContentRoot() (string, error) {
	for _, name := range contentRoots {
		candidate := filepath.Join(s.root, name)
		info, err := os.Stat(candidate)
		if err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", apperr.New(apperr.KindValidation, "no content directory found under %s", s.root)
}

// Scan discovers every content directory under the repository's content
// root. A subdirectory counts as a content directory when it contains a CSV
// index; its type is decided by the index header. Results are sorted by name.
func (s *Store) Scan() ([]Directory, error) {
	root, err := s.ContentRoot()
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read content root %s: %w", root, err)
	}

	var dirs []Directory
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(root, entry.Name())
		csvPath, ok := findIndexCSV(dirPath)
		if !ok {
			s.logger.Debug("Skipping directory without CSV index", "dir", entry.Name())
			continue
		}

		dir, err := readIndex(entry.Name(), dirPath, csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read index for %s: %w", entry.Name(), err)
		}
		dirs = append(dirs, dir)
	}

	sort.Slice(dirs, func(i, j int) bool { return dirs[i].Name < dirs[j].Name })

	s.logger.Info("Content scan completed", "root", root, "directories", len(dirs))
	return dirs, nil
}

// findIndexCSV locates the CSV index of a content directory. A file named
// after the directory wins; otherwise the first CSV in lexical order is used.
func findIndexCSV(dirPath string) (string, bool) {
	preferred := filepath.Join(dirPath, filepath.Base(dirPath)+".csv")
	if _, err := os.Stat(preferred); err == nil {
		return preferred, true
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", false
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".csv") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(dirPath, names[0]), true
}
