package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"coursesearch/internal/domain"
	"coursesearch/internal/logging"
)

// FileProvider reads course lists from JSON or YAML files matched by glob
// patterns. Files are read in lexical order and their records concatenated.
type FileProvider struct {
	root     string
	patterns []string
	logger   *log.Logger
}

// NewFileProvider resolves relative patterns against root.
func NewFileProvider(root string, patterns []string, logger *log.Logger) *FileProvider {
	return &FileProvider{
		root:     root,
		patterns: patterns,
		logger:   logging.Component(logger, "catalog"),
	}
}

func (p *FileProvider) Courses(ctx context.Context) ([]domain.CourseRecord, error) {
	files, err := p.files()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no catalog files match %v", p.patterns)
	}

	var records []domain.CourseRecord
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("loaded catalog file", "path", path, "courses", len(loaded))
		records = append(records, loaded...)
	}
	return records, nil
}

func (p *FileProvider) files() ([]string, error) {
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range p.patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(p.root, pattern)
		}
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// LoadFile decodes a list of course records; the format follows the
// extension (.json, .yaml or .yml).
func LoadFile(path string) ([]domain.CourseRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []domain.CourseRecord
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &records)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &records)
	default:
		return nil, fmt.Errorf("unsupported catalog file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return records, nil
}

// SaveFile writes records in the format implied by the extension, so a
// scraped catalog can later be served by a FileProvider.
func SaveFile(path string, records []domain.CourseRecord) error {
	if records == nil {
		records = []domain.CourseRecord{}
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(records, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(records)
	default:
		return fmt.Errorf("unsupported catalog file type: %s", path)
	}
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}
