// Package assets maps logical static asset names to the fingerprinted names
// produced by the frontend build.
package assets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sync"
	"time"
)

// StaticPrefix is the URL prefix static files are served under.
const StaticPrefix = "/static/"

// ManifestName is the conventional manifest location inside the static tree.
const ManifestName = "manifest.json"

const defaultCheckInterval = time.Second

// Resolver resolves logical asset names such as "css/styles.css" through a
// manifest.json mapping them to hashed file names. Unknown names resolve to
// themselves so an unbuilt tree still works.
type Resolver struct {
	fsys     fs.FS
	manifest string
	watch    bool
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.RWMutex
	entries   map[string]string
	modTime   time.Time
	lastCheck time.Time
}

// Options configures a Resolver.
type Options struct {
	// FS holds the static tree. Required.
	FS fs.FS
	// Manifest is the manifest path inside FS; defaults to manifest.json.
	Manifest string
	// Watch re-reads the manifest when its modification time changes,
	// checking at most once per CheckInterval.
	Watch         bool
	CheckInterval time.Duration
	Logger        *slog.Logger
}

// New loads the manifest and returns a Resolver. A missing manifest is not
// an error.
func New(opts Options) (*Resolver, error) {
	if opts.FS == nil {
		return nil, errors.New("assets: FS is required")
	}
	r := &Resolver{
		fsys:     opts.FS,
		manifest: opts.Manifest,
		watch:    opts.Watch,
		interval: opts.CheckInterval,
		logger:   opts.Logger,
		now:      time.Now,
	}
	if r.manifest == "" {
		r.manifest = ManifestName
	}
	if r.interval <= 0 {
		r.interval = defaultCheckInterval
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the manifest unconditionally.
func (r *Resolver) Reload() error {
	data, err := fs.ReadFile(r.fsys, r.manifest)
	if errors.Is(err, fs.ErrNotExist) {
		r.mu.Lock()
		r.entries, r.modTime = nil, time.Time{}
		r.mu.Unlock()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read asset manifest: %w", err)
	}

	entries := make(map[string]string)
	if len(data) > 0 {
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("parse asset manifest %s: %w", r.manifest, err)
		}
	}
	var mod time.Time
	if info, statErr := fs.Stat(r.fsys, r.manifest); statErr == nil {
		mod = info.ModTime()
	}

	r.mu.Lock()
	r.entries, r.modTime = entries, mod
	r.mu.Unlock()
	return nil
}

// Path returns the URL path for a logical asset name. It is safe on a nil
// Resolver.
func (r *Resolver) Path(name string) string {
	if r == nil {
		return StaticPrefix + name
	}
	if r.watch {
		r.refresh()
	}
	r.mu.RLock()
	hashed, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return StaticPrefix + name
	}
	return StaticPrefix + path.Clean(hashed)
}

// Len reports how many manifest entries are loaded.
func (r *Resolver) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Resolver) refresh() {
	now := r.now()
	r.mu.Lock()
	if !r.lastCheck.IsZero() && now.Sub(r.lastCheck) < r.interval {
		r.mu.Unlock()
		return
	}
	r.lastCheck = now
	known := r.modTime
	r.mu.Unlock()

	info, err := fs.Stat(r.fsys, r.manifest)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if !known.IsZero() {
			_ = r.Reload()
		}
		return
	case err != nil:
		return
	case !info.ModTime().After(known):
		return
	}
	if err := r.Reload(); err != nil {
		r.logger.Warn("asset manifest reload failed", "manifest", r.manifest, "error", err)
	}
}
