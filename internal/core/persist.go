package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oranolio956/qa-automation-framework-sub006/pkg/api"
)

const timestampLayout = "20060102_150405"

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Persister writes the created accounts of a session to a timestamped file.
// File names have second resolution, so two runs started in the same second
// with the same prefix collide; the later one fails rather than overwriting.
type Persister struct {
	Dir    string
	Format string

	now func() time.Time
}

func NewPersister(dir, format string) *Persister {
	return &Persister{Dir: dir, Format: format, now: time.Now}
}

// FileName returns {prefix}_{YYYYMMDD_HHMMSS}.{ext} for the given time.
func (p *Persister) FileName(prefix string, at time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, at.Format(timestampLayout), p.ext())
}

func (p *Persister) ext() string {
	if strings.EqualFold(p.Format, FormatYAML) || strings.EqualFold(p.Format, "yml") {
		return FormatYAML
	}
	return FormatJSON
}

// Persist writes created as an indented document and returns its path. Any
// failure wraps ErrIOFailure.
func (p *Persister) Persist(created []api.AccountRecord, prefix string) (string, error) {
	if prefix == "" {
		prefix = "accounts"
	}
	if created == nil {
		created = []api.AccountRecord{}
	}
	dir := p.Dir
	if dir == "" {
		dir = "."
	}
	now := time.Now
	if p.now != nil {
		now = p.now
	}
	path := filepath.Join(dir, p.FileName(prefix, now()))

	data, err := p.encode(created)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrIOFailure, path, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %w", ErrIOFailure, err)
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s already exists", ErrIOFailure, path)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+prefix+"-*")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %w", ErrIOFailure, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("%w: write %s: %w", ErrIOFailure, path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: close %s: %w", ErrIOFailure, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return "", fmt.Errorf("%w: chmod %s: %w", ErrIOFailure, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("%w: rename into %s: %w", ErrIOFailure, path, err)
	}
	return path, nil
}

func (p *Persister) encode(created []api.AccountRecord) ([]byte, error) {
	if p.ext() == FormatYAML {
		return yaml.Marshal(created)
	}
	data, err := json.MarshalIndent(created, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
