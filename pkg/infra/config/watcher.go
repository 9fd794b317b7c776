// Package config reloads settings from the config file while a run is active.
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
)

// ChangeHandler is invoked with the re-read viper instance after the config
// file changed.
type ChangeHandler func(v *viper.Viper) error

// Watcher fans config file changes out to subscribed handlers.
type Watcher struct {
	viper    *viper.Viper
	handlers map[string]ChangeHandler
	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher for v, which must already have read its
// config file.
func NewWatcher(v *viper.Viper) *Watcher {
	return &Watcher{
		viper:    v,
		handlers: make(map[string]ChangeHandler),
	}
}

// Subscribe registers handler under id, replacing any previous one.
func (w *Watcher) Subscribe(id string, handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[id] = handler
	logger.Debugw("config handler subscribed", "id", id)
}

// Unsubscribe removes the handler registered under id.
func (w *Watcher) Unsubscribe(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.handlers, id)
}

// Start begins watching the config file. It is a no-op when no file was
// read or the watcher already runs.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.watching || w.viper.ConfigFileUsed() == "" {
		w.mu.Unlock()
		return
	}
	w.watching = true
	w.mu.Unlock()

	w.viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Infow("config file changed", "file", e.Name, "op", e.Op.String())
		w.notify()
	})
	w.viper.WatchConfig()
}

// Stop stops delivering changes. viper keeps its file watch open, so
// events after Stop are dropped.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watching = false
}

// IsWatching returns whether the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// HandlerCount returns the number of registered handlers.
func (w *Watcher) HandlerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.handlers)
}

// notify calls every handler in id order. A failing handler does not stop
// the others. It returns the number of failures.
func (w *Watcher) notify() int {
	w.mu.RLock()
	if !w.watching {
		w.mu.RUnlock()
		return 0
	}
	ids := make([]string, 0, len(w.handlers))
	handlers := make(map[string]ChangeHandler, len(w.handlers))
	for id, h := range w.handlers {
		ids = append(ids, id)
		handlers[id] = h
	}
	w.mu.RUnlock()
	sort.Strings(ids)

	failed := 0
	for _, id := range ids {
		if err := handlers[id](w.viper); err != nil {
			failed++
			logger.Errorw("config handler failed", "id", id, "error", err)
		}
	}
	return failed
}

// Section returns a handler that decodes the key section over a fresh
// value from newFn and passes it to apply.
func Section[T any](key string, newFn func() *T, apply func(*T) error) ChangeHandler {
	return func(v *viper.Viper) error {
		next := newFn()
		if err := v.UnmarshalKey(key, next); err != nil {
			return fmt.Errorf("failed to unmarshal config key '%s': %w", key, err)
		}
		return apply(next)
	}
}
