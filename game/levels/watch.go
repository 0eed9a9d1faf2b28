package levels

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// OnChange registers fn to run after a level file changed on disk and its
// cache entry was dropped. fn receives the level name.
func (m *Manager) OnChange(fn func(name string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onChange = append(m.onChange, fn)
}

// Watch follows the level directory until ctx is done. Any create, write,
// rename or remove of a level file evicts it from the cache so the next
// LoadLevel reads the new contents. Running sessions keep their level.
func (m *Manager) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(m.levelDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", m.levelDir, err)
	}
	m.log.Info("watching level directory", zap.String("dir", m.levelDir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			m.handleEvent(event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.log.Warn("level watcher error", zap.Error(err))
		}
	}
}

func (m *Manager) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if !strings.HasSuffix(base, levelExt) {
		return
	}
	if !event.Has(fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename) {
		return
	}

	name := strings.TrimSuffix(base, levelExt)
	m.Invalidate(name)
	m.log.Info("level changed on disk", zap.String("level", name), zap.String("op", event.Op.String()))
}

// Invalidate drops one cached level and reselects the default when it may be affected.
// A default chosen with SetDefault is reloaded by name while its file stays valid.
func (m *Manager) Invalidate(name string) {
	m.mu.Lock()
	delete(m.levels, name)
	pinned, current := m.pinned, m.defaultName
	reselect := name == current || (!pinned && (name == defaultLevelName || current == builtinLevelName))
	callbacks := append([]func(string){}, m.onChange...)
	m.mu.Unlock()

	if reselect {
		if !pinned || m.SetDefault(current) != nil {
			m.mu.Lock()
			m.pinned = false
			m.mu.Unlock()
			m.loadDefault()
		}
	}
	for _, fn := range callbacks {
		fn(name)
	}
}
