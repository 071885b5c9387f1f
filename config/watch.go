package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/codbun/chatcore/providers/observability"
)

// Watch reloads the TOML override file whenever it changes, until ctx is
// cancelled. The watch goes on the parent directory, not the file: editors
// and atomic writers replace files via rename, which swaps the inode and
// kills any watch placed on the file itself, while Create/Write events for
// the name keep arriving on the directory watch. Reload failures are logged
// and skipped; the previously applied configuration stays in effect, matching
// the registry's read-mostly contract.
func (r *Registry) Watch(ctx context.Context, path string, observer observability.Observer) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return err
	}

	name := filepath.Base(path)

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != name {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := r.LoadFile(path); err != nil {
					if observer != nil {
						observer.Warn("config reload failed", observability.Error(err))
					}
					continue
				}
				if observer != nil {
					observer.Info("config reloaded", observability.String("path", path))
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if observer != nil {
					observer.Warn("config watcher error", observability.Error(err))
				}
			}
		}
	}()

	return nil
}
