// Package assets fingerprints static files so templates can emit cache-busting URLs.
package assets

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"strings"
	"sync"
)

const (
	// URLPrefix is where the static file server is mounted.
	URLPrefix = "/static/"
	// VersionParam carries the fingerprint on asset URLs.
	VersionParam = "v"

	fingerprintLen = 12
)

// AssetResolver maps logical asset names ("css/app.css") to fingerprinted URLs.
// Fingerprints are content hashes computed once from the static filesystem.
// A nil resolver, or one in dev mode, returns plain URLs.
type AssetResolver struct {
	mu      sync.RWMutex
	hashes  map[string]string
	fsys    fs.FS
	devMode bool
	logger  *slog.Logger
}

// NewAssetResolver hashes every regular file in fsys.
func NewAssetResolver(fsys fs.FS, devMode bool, logger *slog.Logger) (*AssetResolver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ar := &AssetResolver{fsys: fsys, devMode: devMode, logger: logger, hashes: map[string]string{}}
	if devMode || fsys == nil {
		return ar, nil
	}
	if err := ar.Reload(); err != nil {
		return ar, err
	}
	return ar, nil
}

// Reload recomputes fingerprints from the filesystem.
func (ar *AssetResolver) Reload() error {
	hashes := make(map[string]string)
	err := fs.WalkDir(ar.fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, err := fs.ReadFile(ar.fsys, p)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(b)
		hashes[p] = hex.EncodeToString(sum[:])[:fingerprintLen]
		return nil
	})
	if err != nil {
		return err
	}

	ar.mu.Lock()
	ar.hashes = hashes
	ar.mu.Unlock()
	ar.logger.Debug("static assets fingerprinted", slog.Int("files", len(hashes)))
	return nil
}

// Resolve returns the URL for a logical asset name.
func (ar *AssetResolver) Resolve(logicalName string) string {
	name := strings.TrimPrefix(logicalName, "/")
	plain := URLPrefix + name
	if ar == nil || ar.devMode {
		return plain
	}

	ar.mu.RLock()
	h, ok := ar.hashes[name]
	ar.mu.RUnlock()
	if !ok {
		ar.logger.Warn("unknown static asset", slog.String("asset", name))
		return plain
	}
	return plain + "?" + VersionParam + "=" + h
}

// Fingerprint returns the current hash for a logical name.
func (ar *AssetResolver) Fingerprint(logicalName string) (string, bool) {
	if ar == nil {
		return "", false
	}
	ar.mu.RLock()
	defer ar.mu.RUnlock()
	h, ok := ar.hashes[strings.TrimPrefix(logicalName, "/")]
	return h, ok
}
