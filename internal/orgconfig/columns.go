// Package orgconfig stores per-organization display settings in a YAML file
// beside the service. Organizations without an entry fall back to the
// default column set.
package orgconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/oakline/staffdir/internal/search"
)

type fileFormat struct {
	Organizations map[string]orgEntry `yaml:"organizations"`
}

type orgEntry struct {
	Columns []string `yaml:"columns"`
}

// Manager reads and writes the per-organization column file. All access goes
// through the mutex; writes rewrite the whole file.
type Manager struct {
	path   string
	logger zerolog.Logger

	mu   sync.RWMutex
	orgs map[string][]string
}

// NewManager loads the column file, creating it with a default entry when it
// does not exist yet.
func NewManager(path string, logger zerolog.Logger) (*Manager, error) {
	m := &Manager{
		path:   path,
		logger: logger.With().Str("component", "orgconfig").Logger(),
		orgs:   map[string][]string{},
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		m.orgs["default"] = append([]string(nil), search.DefaultColumns...)
		if err := m.flushLocked(); err != nil {
			return nil, err
		}
		m.logger.Info().Str("path", path).Msg("created organization column config")
	case err != nil:
		return nil, fmt.Errorf("read column config: %w", err)
	default:
		var f fileFormat
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse column config: %w", err)
		}
		for org, entry := range f.Organizations {
			m.orgs[org] = entry.Columns
		}
	}

	return m, nil
}

// Columns returns the configured columns for an organization, or the default
// set when none are configured.
func (m *Manager) Columns(orgID string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cols, ok := m.orgs[orgID]
	if !ok || len(cols) == 0 {
		cols = search.DefaultColumns
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// SetColumns validates and persists an organization's column selection.
func (m *Manager) SetColumns(orgID string, columns []string) error {
	if len(columns) == 0 {
		return fmt.Errorf("columns must not be empty")
	}
	for _, c := range columns {
		if !search.ValidColumn(c) {
			return fmt.Errorf("unknown column %q", c)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	prev, had := m.orgs[orgID]
	m.orgs[orgID] = append([]string(nil), columns...)
	if err := m.flushLocked(); err != nil {
		if had {
			m.orgs[orgID] = prev
		} else {
			delete(m.orgs, orgID)
		}
		return err
	}

	m.logger.Info().Str("org_id", orgID).Strs("columns", columns).Msg("updated organization columns")
	return nil
}

// flushLocked writes the file atomically. Callers hold the write lock, or
// run before the Manager is shared.
func (m *Manager) flushLocked() error {
	f := fileFormat{Organizations: map[string]orgEntry{}}
	for org, cols := range m.orgs {
		f.Organizations[org] = orgEntry{Columns: cols}
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshal column config: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write column config: %w", err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replace column config: %w", err)
	}
	return nil
}
