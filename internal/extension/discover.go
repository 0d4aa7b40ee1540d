//go:build !js && !wasip1

package extension

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"plugin"
)

// EntrypointSymbol is the exported symbol every extension binary must
// provide. It must resolve to a func() (Extension, error).
const EntrypointSymbol = "NewExtension"

// entrypointFunc is the shape EntrypointSymbol must satisfy.
type entrypointFunc func() (Extension, error)

// Discover scans dir (non-recursively) for ".so" binaries, opens each via
// the Go plugin loader, resolves its EntrypointSymbol to construct the
// in-process Extension object, and registers it on h. A single binary that
// fails to open or construct is logged and skipped; discovery continues
// with the rest of the directory so one bad plugin cannot prevent the
// others from loading.
func (h *Host) Discover(ctx context.Context, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("extension: reading plugin directory %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".so" {
			continue
		}
		path := filepath.Join(dir, e.Name())

		ext, err := loadPlugin(path)
		if err != nil {
			log.Printf("[EXTENSION] skipping %s: %v", path, err)
			continue
		}
		if err := h.Register(ctx, ext); err != nil {
			log.Printf("[EXTENSION] skipping %s: register failed: %v", path, err)
			continue
		}
		log.Printf("[EXTENSION] ✅ loaded %s from %s", ext.Metadata().ID, path)
	}
	return nil
}

// loadPlugin opens a single plugin binary and invokes its entrypoint.
func loadPlugin(path string) (Extension, error) {
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening plugin: %w", err)
	}
	sym, err := p.Lookup(EntrypointSymbol)
	if err != nil {
		return nil, fmt.Errorf("missing entrypoint %s: %w", EntrypointSymbol, err)
	}
	entry, ok := sym.(func() (Extension, error))
	if !ok {
		return nil, fmt.Errorf("entrypoint %s has the wrong signature, want func() (extension.Extension, error)", EntrypointSymbol)
	}
	ext, err := entry()
	if err != nil {
		return nil, fmt.Errorf("constructing extension: %w", err)
	}
	return ext, nil
}
