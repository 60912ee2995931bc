package preset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/robotnav/navigation/scenario"
	"github.com/wricardo/mcp-training/robotnav/navigation/service"
)

var (
	ErrPresetNotFound = errors.New("preset not found")
	ErrInvalidPreset  = errors.New("invalid preset")
)

// Preset file formats
const (
	FormatRaw  = "raw"
	FormatJSON = "json"
)

var extensions = map[string]string{
	".txt":  FormatRaw,
	".json": FormatJSON,
}

type entry struct {
	cmd      *scenario.Command
	filename string
	format   string
}

// Manager handles preset loading and caching
type Manager struct {
	dir     string
	presets map[string]*entry
	mu      sync.RWMutex
}

// NewManager creates a preset manager for dir, which must exist
func NewManager(dir string) (*Manager, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preset directory does not exist: %s", dir)
		}
		return nil, fmt.Errorf("failed to stat preset directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("preset path is not a directory: %s", dir)
	}

	return &Manager{
		dir:     dir,
		presets: make(map[string]*entry),
	}, nil
}

// Dir returns the preset directory
func (m *Manager) Dir() string {
	return m.dir
}

// Load loads a preset by name. The name may carry a .txt or .json extension.
func (m *Manager) Load(name string) (*scenario.Command, error) {
	e, err := m.load(name)
	if err != nil {
		return nil, err
	}
	cmd := *e.cmd
	return &cmd, nil
}

func (m *Manager) load(name string) (*entry, error) {
	id, err := presetID(name)
	if err != nil {
		return nil, err
	}
	key := cacheKey(name, id)

	m.mu.RLock()
	if e, exists := m.presets[key]; exists {
		m.mu.RUnlock()
		return e, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if e, exists := m.presets[key]; exists {
		return e, nil
	}

	filename, format, err := m.resolve(name, id)
	if err != nil {
		return nil, err
	}

	cmd, err := parseFile(filepath.Join(m.dir, filename), format)
	if err != nil {
		return nil, err
	}

	e := &entry{cmd: &cmd, filename: filename, format: format}
	m.presets[key] = e
	return e, nil
}

// cacheKey is the file name when the caller names one, the bare id otherwise
func cacheKey(name, id string) string {
	name = strings.TrimSpace(name)
	if _, ok := extensions[filepath.Ext(name)]; ok {
		return name
	}
	return id
}

// resolve finds the file backing a preset. A bare name prefers the raw format.
func (m *Manager) resolve(name, id string) (string, string, error) {
	if format, ok := extensions[filepath.Ext(name)]; ok {
		if _, err := os.Stat(filepath.Join(m.dir, name)); err != nil {
			return "", "", ErrPresetNotFound
		}
		return name, format, nil
	}

	for _, ext := range []string{".txt", ".json"} {
		filename := id + ext
		if _, err := os.Stat(filepath.Join(m.dir, filename)); err == nil {
			return filename, extensions[ext], nil
		}
	}
	return "", "", ErrPresetNotFound
}

// List returns information about all valid presets. Invalid files are skipped.
func (m *Manager) List() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read preset directory: %w", err)
	}

	var presets []*service.PresetInfo
	seen := make(map[string]bool)

	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		if _, ok := extensions[filepath.Ext(de.Name())]; !ok {
			continue
		}

		id := strings.TrimSuffix(de.Name(), filepath.Ext(de.Name()))
		if seen[id] {
			continue
		}
		seen[id] = true

		// by id, so the listing matches what Load(id) returns
		e, err := m.load(id)
		if err != nil {
			continue
		}

		presets = append(presets, &service.PresetInfo{
			ID:       id,
			Filename: e.filename,
			Format:   e.format,
			MaxX:     e.cmd.Grid.MaxX,
			MaxY:     e.cmd.Grid.MaxY,
			Robots:   e.cmd.RobotCount(),
		})
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].ID < presets[j].ID })
	return presets, nil
}

// Save validates cmd and writes it as a preset. Commands carrying policy or
// occupancy settings are written as JSON since the raw format cannot hold them.
func (m *Manager) Save(name string, cmd scenario.Command) error {
	id, err := presetID(name)
	if err != nil {
		return err
	}

	validated, err := scenario.NewRequest(cmd).ToCommand()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreset, err)
	}

	format := FormatRaw
	if validated.Policy != "" || validated.Occupancy != nil || validated.OccupyFinal != nil {
		format = FormatJSON
	}

	var (
		filename string
		data     []byte
	)
	switch format {
	case FormatJSON:
		filename = id + ".json"
		data, err = json.MarshalIndent(scenario.NewRequest(validated), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal preset: %w", err)
		}
	default:
		filename = id + ".txt"
		data = []byte(scenario.FormatRaw(validated))
	}

	if err := os.WriteFile(filepath.Join(m.dir, filename), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[filename] = &entry{cmd: &validated, filename: filename, format: format}
	// a bare id may resolve to the other format
	delete(m.presets, id)
	m.mu.Unlock()

	return nil
}

// RefreshCache drops all cached presets
func (m *Manager) RefreshCache() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presets = make(map[string]*entry)
}

// presetID strips a known extension and rejects names that would escape the
// preset directory
func presetID(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: invalid preset name %q", ErrPresetNotFound, name)
	}
	if _, ok := extensions[filepath.Ext(name)]; ok {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name, nil
}

func parseFile(path, format string) (scenario.Command, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return scenario.Command{}, ErrPresetNotFound
		}
		return scenario.Command{}, fmt.Errorf("failed to read preset file: %w", err)
	}

	var cmd scenario.Command
	switch format {
	case FormatJSON:
		var req *scenario.Request
		if req, err = scenario.DecodeRequest(bytes.NewReader(data)); err == nil {
			cmd, err = req.ToCommand()
		}
	default:
		cmd, err = scenario.ParseRaw(string(data))
	}
	if err != nil {
		return scenario.Command{}, fmt.Errorf("%w: %s: %v", ErrInvalidPreset, filepath.Base(path), err)
	}
	return cmd, nil
}
