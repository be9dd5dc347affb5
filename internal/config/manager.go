package config

import (
	"context"
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Manager loads the configuration once and then watches the file for
// changes, swapping in valid reloads. OnReload callbacks let the daemon push
// new settings into running components.
type Manager struct {
	mu       sync.RWMutex
	config   *Config
	onReload []func(*Config)
	watcher  *fsnotify.Watcher
	wg       sync.WaitGroup
}

func NewManager() (*Manager, error) {
	config, err := Load()
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Manager{config: config}, nil
}

func (m *Manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification.
	configCopy := *m.config
	return &configCopy
}

// OnReload registers a callback invoked with each successfully reloaded
// config. Register before StartWatching.
func (m *Manager) OnReload(fn func(*Config)) {
	m.onReload = append(m.onReload, fn)
}

func (m *Manager) StartWatching(ctx context.Context) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	m.watcher = watcher

	// Watch the directory, not the file: editors replace the file on save.
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		watcher.Close()
		return err
	}

	m.wg.Add(1)
	go m.watchLoop(ctx, configPath)

	log.Printf("config: watching %s for changes", configPath)
	return nil
}

func (m *Manager) Stop() {
	if m.watcher != nil {
		m.watcher.Close()
	}
	m.wg.Wait()
}

func (m *Manager) watchLoop(ctx context.Context, configPath string) {
	defer m.wg.Done()
	configFileName := filepath.Base(configPath)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != configFileName {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Printf("config: change detected in %s, reloading", event.Name)
				m.reloadConfig(configPath)
			}

		case err, ok := <-m.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("config: watcher error: %v", err)

		case <-ctx.Done():
			return
		}
	}
}

func (m *Manager) reloadConfig(configPath string) {
	newConfig, err := LoadFrom(configPath)
	if err != nil {
		log.Printf("config: reload failed, keeping previous config: %v", err)
		return
	}

	if err := newConfig.Validate(); err != nil {
		log.Printf("config: reloaded file is invalid, keeping previous config: %v", err)
		return
	}

	m.mu.Lock()
	m.config = newConfig
	m.mu.Unlock()

	for _, fn := range m.onReload {
		fn(newConfig)
	}

	log.Printf("config: configuration reloaded")
}
