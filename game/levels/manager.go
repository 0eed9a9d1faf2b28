package levels

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/sokoban/game/engine"
	"github.com/wricardo/mcp-training/sokoban/game/service"
	"github.com/wricardo/mcp-training/sokoban/internal/logs"
)

var (
	ErrLevelNotFound = service.ErrLevelNotFound
	ErrInvalidLevel  = service.ErrInvalidLevel
)

const (
	levelExt         = ".xml"
	defaultLevelName = "level1"
	builtinLevelName = "builtin"
)

// Manager handles level loading and caching
type Manager struct {
	levelDir     string
	defaultName  string
	defaultLevel *engine.Level
	pinned       bool
	levels       map[string]*engine.Level
	onChange     []func(name string)
	log          *zap.Logger
	mu           sync.RWMutex
}

// NewManager creates a level catalog over levelDir
func NewManager(levelDir string) (*Manager, error) {
	if _, err := os.Stat(levelDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("level directory does not exist: %s", levelDir)
	}

	m := &Manager{
		levelDir: levelDir,
		levels:   make(map[string]*engine.Level),
		log:      logs.Named("levels"),
	}

	m.loadDefault()
	return m, nil
}

// Dir returns the directory the catalog reads from
func (m *Manager) Dir() string { return m.levelDir }

// LoadLevel loads a level by name, e.g. "level3"
func (m *Manager) LoadLevel(name string) (*engine.Level, error) {
	name = strings.TrimSuffix(name, levelExt)

	m.mu.RLock()
	if level, exists := m.levels[name]; exists {
		m.mu.RUnlock()
		return level, nil
	}
	m.mu.RUnlock()

	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, ErrLevelNotFound
	}

	level, err := engine.LoadLevelFile(filepath.Join(m.levelDir, name+levelExt))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrLevelNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}
	if level.Name() == "" {
		level = level.WithMeta(name, level.Description())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if cached, exists := m.levels[name]; exists {
		return cached, nil
	}
	m.levels[name] = level
	return level, nil
}

// ListLevels returns information about every loadable level, in menu order
func (m *Manager) ListLevels() ([]*service.LevelInfo, error) {
	entries, err := os.ReadDir(m.levelDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read level directory: %w", err)
	}

	var infos []*service.LevelInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), levelExt) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), levelExt)
		level, err := m.LoadLevel(name)
		if err != nil {
			m.log.Warn("skipping invalid level", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		infos = append(infos, &service.LevelInfo{
			Filename:    entry.Name(),
			LevelID:     name,
			Name:        level.Name(),
			Description: level.Description(),
			Boxes:       len(level.Boxes()),
			Width:       level.Width(),
			Height:      level.Height(),
		})
	}

	slices.SortFunc(infos, func(a, b *service.LevelInfo) int {
		return compareNatural(a.LevelID, b.LevelID)
	})
	return infos, nil
}

// GetDefault returns the default level
func (m *Manager) GetDefault() *engine.Level {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultLevel
}

// DefaultName returns the identifier of the default level
func (m *Manager) DefaultName() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultName
}

// SetDefault sets the default level by name
func (m *Manager) SetDefault(name string) error {
	level, err := m.LoadLevel(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultName = strings.TrimSuffix(name, levelExt)
	m.defaultLevel = level
	m.pinned = true
	return nil
}

// RefreshCache drops every cached level and reselects the default
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.levels = make(map[string]*engine.Level)
	m.pinned = false
	m.mu.Unlock()

	m.loadDefault()
	return nil
}

// SaveLevel validates rows and writes them as a level document
func (m *Manager) SaveLevel(name string, def *service.LevelDefinition) error {
	name = strings.TrimSuffix(name, levelExt)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad level name %q", ErrInvalidLevel, name)
	}
	if def == nil {
		return fmt.Errorf("%w: no level definition", ErrInvalidLevel)
	}

	level, err := engine.ParseRows(def.Rows)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLevel, err)
	}
	displayName := def.Name
	if displayName == "" {
		displayName = name
	}
	level = level.WithMeta(displayName, def.Description)

	var buf bytes.Buffer
	if err := engine.EncodeDocument(&buf, displayName, def.Description, def.Rows); err != nil {
		return fmt.Errorf("failed to encode level: %w", err)
	}
	if err := os.WriteFile(filepath.Join(m.levelDir, name+levelExt), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write level file: %w", err)
	}

	m.mu.Lock()
	m.levels[name] = level
	m.mu.Unlock()

	m.log.Info("level saved", zap.String("level", name), zap.Int("boxes", len(level.Boxes())))
	return nil
}

// loadDefault prefers level1, then the first listed level, then a builtin level
func (m *Manager) loadDefault() {
	name := defaultLevelName
	level, err := m.LoadLevel(name)
	if err != nil {
		infos, listErr := m.ListLevels()
		if listErr == nil && len(infos) > 0 {
			name = infos[0].LevelID
			level, err = m.LoadLevel(name)
		}
	}
	if err != nil || level == nil {
		name, level = builtinLevelName, builtinLevel()
		m.log.Warn("no playable level found, using builtin", zap.String("dir", m.levelDir))
	}

	m.mu.Lock()
	m.defaultName = name
	m.defaultLevel = level
	m.mu.Unlock()
}

// builtinLevel is a one-push level kept in code so a server always has something to play
func builtinLevel() *engine.Level {
	level, err := engine.ParseRows([]string{
		"#####",
		"#P..#",
		"#.B.#",
		"#..G#",
		"#####",
	})
	if err != nil {
		panic(err)
	}
	return level.WithMeta("Builtin", "Push the box onto the goal")
}

// compareNatural orders "level2" before "level10"
func compareNatural(a, b string) int {
	pa, na := splitNumber(a)
	pb, nb := splitNumber(b)
	if pa != pb {
		return strings.Compare(pa, pb)
	}
	if na != nb {
		if na < nb {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func splitNumber(s string) (string, int) {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(s[i:])
	if err != nil {
		return s, -1
	}
	return s[:i], n
}
