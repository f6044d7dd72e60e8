package pathutil

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// TempPaths maps keys to scratch directories under a root. The first request
// for a key creates a directory named by a random UUID; later requests for
// the same key return it.
type TempPaths struct {
	paths map[string]string
	root  string
	mu    sync.RWMutex
}

// NewTempPaths returns a [TempPaths] rooted at root, or at [os.TempDir]
// when root is empty.
func NewTempPaths(root string) *TempPaths {
	if root == "" {
		root = os.TempDir()
	}

	return &TempPaths{
		root:  root,
		paths: map[string]string{},
	}
}

// Dir returns the directory for key, creating it on first use.
func (p *TempPaths) Dir(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if dir, ok := p.paths[key]; ok {
		return dir, nil
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}

	dir := filepath.Join(p.root, id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}

	p.paths[key] = dir

	return dir, nil
}

// Lookup returns the directory for key, or the empty string if none was
// created.
func (p *TempPaths) Lookup(key string) string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.paths[key]
}

// Paths returns a copy of the key to directory map.
func (p *TempPaths) Paths() map[string]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return maps.Clone(p.paths)
}

// RemoveAll deletes every directory handed out and forgets them.
func (p *TempPaths) RemoveAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var merr error
	for key, dir := range p.paths {
		if err := os.RemoveAll(dir); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("remove %s: %w", dir, err))

			continue
		}

		delete(p.paths, key)
	}

	return merr
}
