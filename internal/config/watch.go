package config

import (
	"github.com/fsnotify/fsnotify"

	"github.com/Rajchodisetti/oracle-core/internal/observ"
)

// WatchSymbolConfig watches the symbol-configuration file for writes and
// logs a notification event. Hot-reload is not implemented — see
// SymbolConfig's doc comment — so this is observability only: it tells an
// operator the on-disk document changed and a restart is needed for the
// change to take effect.
//
// The returned watcher must be closed by the caller; RunSymbolConfigWatch
// runs the watch loop until the watcher is closed.
func WatchSymbolConfig(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// RunSymbolConfigWatch drains w until its event channel closes, logging a
// line for every write, create or rename of the watched file. It returns once the
// watcher is closed by the caller.
func RunSymbolConfigWatch(w *fsnotify.Watcher, path string) {
	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Rename|fsnotify.Create) != 0 {
				observ.Log("symbol_config_changed_on_disk", map[string]any{
					"path": path,
					"op":   ev.Op.String(),
				})
			}
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			observ.Log("symbol_config_watch_error", map[string]any{"error": err.Error()})
		}
	}
}
