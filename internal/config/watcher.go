package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/textenhance/core/pkg/types"
)

// Watcher reloads the provider configuration file on change and hands
// the newly resolved []types.ProviderConfig to a callback, letting an
// operator rotate a credential, enable or disable a provider, or change
// priorities without a process restart. Only the provider configs are
// handed over: a changed enhancement.enabled does not reach an
// Orchestrator that is already built.
type Watcher struct {
	path     string
	resolver *Resolver
	fsw      *fsnotify.Watcher
	log      *zap.SugaredLogger
}

// NewWatcher starts watching path's parent directory (matching the
// editor-replaces-file-via-rename pattern fsnotify needs to catch on
// most platforms) and returns a Watcher ready for Run.
func NewWatcher(path string, resolver *Resolver, log *zap.SugaredLogger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{path: path, resolver: resolver, fsw: fsw, log: log}, nil
}

// ChangeFunc receives the freshly resolved provider configs and the
// error from attempting to reload (nil on success). Reload failures are
// logged by the caller and otherwise ignored: the previously resolved
// config stays active.
type ChangeFunc func(configs []types.ProviderConfig, reloadErr error)

// Run blocks, watching until stop is closed, calling onChange after
// every write/create/rename event targeting the watched file with a
// freshly resolved provider list (or the error from attempting one).
func (w *Watcher) Run(stop <-chan struct{}, onChange ChangeFunc) {
	target := filepath.Clean(w.path)
	for {
		select {
		case <-stop:
			w.fsw.Close()
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			cfg, err := LoadYAML(w.path)
			if err != nil {
				onChange(nil, err)
				continue
			}
			resolved, err := w.resolver.Resolve(cfg)
			if err != nil {
				onChange(nil, err)
				continue
			}
			onChange(resolved, nil)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if w.log != nil {
				w.log.Warnw("config watcher error", "error", err)
			}
		}
	}
}

// Close stops the underlying fsnotify watcher immediately.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
