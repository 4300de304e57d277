package content

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"staticcms/internal/apperr"
	"staticcms/pkg/fileops"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

const (
	articleFileName = "article.md"
	mediaDirName    = "media"
)

// ReadArticle loads the markdown body for one row of an article directory.
// A missing article.md is not an error: rows can exist in the index before
// their article has been written, so an empty Article is returned.
func (s *Store) ReadArticle(dir *Directory, id string) (Article, error) {
	articleDir, err := articleDirFor(dir, id)
	if err != nil {
		return Article{}, err
	}

	article := Article{
		ID:       id,
		Path:     filepath.Join(articleDir, articleFileName),
		MediaDir: filepath.Join(articleDir, mediaDirName),
	}

	data, err := os.ReadFile(article.Path)
	if os.IsNotExist(err) {
		return article, nil
	}
	if err != nil {
		return Article{}, fmt.Errorf("failed to read %s: %w", article.Path, err)
	}

	body, err := frontmatter.Parse(bytes.NewReader(data), &article.Meta)
	if err != nil {
		return Article{}, fmt.Errorf("invalid frontmatter in %s: %w", article.Path, err)
	}
	article.Body = string(body)

	return article, nil
}

// WriteArticle stores an article's markdown, creating the row's directory
// and media subdirectory as needed. Frontmatter is written only when the
// article carries metadata.
func (s *Store) WriteArticle(dir *Directory, article Article) error {
	articleDir, err := articleDirFor(dir, article.ID)
	if err != nil {
		return err
	}
	if err := fileops.EnsureDir(articleDir); err != nil {
		return fmt.Errorf("failed to create article directory: %w", err)
	}
	if err := fileops.EnsureDir(filepath.Join(articleDir, mediaDirName)); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}

	var buf bytes.Buffer
	if !article.Meta.isZero() {
		meta, err := yaml.Marshal(article.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode frontmatter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(meta)
		buf.WriteString("---\n\n")
	}
	buf.WriteString(article.Body)

	path := filepath.Join(articleDir, articleFileName)
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.Info("Article written", "dir", dir.Name, "id", article.ID)
	return nil
}

// CopyMedia copies a file from outside the repository into the row's media
// directory and returns the relative reference to embed in markdown, for
// example "./media/photo.png".
func (s *Store) CopyMedia(dir *Directory, id, srcPath string) (string, error) {
	articleDir, err := articleDirFor(dir, id)
	if err != nil {
		return "", err
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return "", apperr.Wrap(apperr.KindValidation, err, "cannot read media file %s", srcPath)
	}
	defer src.Close()

	mediaDir := filepath.Join(articleDir, mediaDirName)
	if err := fileops.EnsureDir(mediaDir); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	name := filepath.Base(srcPath)
	destPath := filepath.Join(mediaDir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", destPath, err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("failed to copy media to %s: %w", destPath, err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to close %s: %w", destPath, err)
	}

	s.logger.Debug("Media copied", "dir", dir.Name, "id", id, "file", name)
	return "./" + mediaDirName + "/" + name, nil
}

// articleDirFor resolves the per-row directory, rejecting ids that would
// escape the content directory.
func articleDirFor(dir *Directory, id string) (string, error) {
	if dir == nil {
		return "", apperr.New(apperr.KindValidation, "content directory is required")
	}
	if dir.Type != TypeArticle {
		return "", apperr.New(apperr.KindValidation, "%s is not an article directory", dir.Name)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperr.New(apperr.KindValidation, "article id is required")
	}
	if err := fileops.ValidatePathSecurity(id); err != nil {
		return "", apperr.Wrap(apperr.KindSecurity, err, "unsafe article id %q", id)
	}
	if strings.ContainsAny(id, `/\`) {
		return "", apperr.New(apperr.KindSecurity, "article id must not contain path separators")
	}
	return filepath.Join(dir.Path, id), nil
}
