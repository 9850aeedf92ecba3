// Package toolcache stores extracted tool binaries keyed by tool, version and
// architecture, using the same directory layout as the Actions runner tool cache.
package toolcache

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	version "github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

const completeSuffix = ".complete"

// Entry describes a completed cache entry. It is stored as YAML in the
// entry's completion marker.
type Entry struct {
	Tool     string    `yaml:"tool"`
	Version  string    `yaml:"version"`
	Arch     string    `yaml:"arch"`
	Source   string    `yaml:"source"`
	CachedAt time.Time `yaml:"cached_at"`

	// Dir is the entry directory; it is not persisted.
	Dir string `yaml:"-"`
}

// Cache manages cached tool binaries under a root directory laid out as
// <root>/<tool>/<version>/<arch>/ with a <arch>.complete marker beside each
// finished entry.
type Cache struct {
	root   string
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Cache rooted at root.
func New(root string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		root:   root,
		logger: logger,
		now:    time.Now,
	}
}

// DefaultRoot returns the cache root: RUNNER_TOOL_CACHE on Actions runners,
// otherwise a directory under XDG_CACHE_HOME or ~/.cache.
func DefaultRoot() string {
	if dir := os.Getenv("RUNNER_TOOL_CACHE"); dir != "" {
		return dir
	}

	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "setup-kustomize", "tools")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".cache", "setup-kustomize", "tools")
	}

	return filepath.Join(home, ".cache", "setup-kustomize", "tools")
}

// Root returns the cache root directory.
func (c *Cache) Root() string {
	return c.root
}

// Find returns the directory of a completed cache entry.
func (c *Cache) Find(tool, ver, arch string) (string, bool) {
	dir := c.entryDir(tool, ver, arch)

	if !complete(dir) {
		c.logger.Debug("tool cache miss", "tool", tool, "version", ver, "arch", arch)

		return "", false
	}

	c.logger.Debug("tool cache hit", "tool", tool, "version", ver, "arch", arch, "dir", dir)

	return dir, true
}

// CacheFile copies src into a fresh cache entry as targetName and marks the
// entry complete. Any previous entry for the same key is replaced.
func (c *Cache) CacheFile(src, targetName, tool, ver, arch string) (string, error) {
	if targetName == "" || strings.ContainsAny(targetName, `/\`) {
		return "", fmt.Errorf("invalid cache file name %q", targetName)
	}

	dir := c.entryDir(tool, ver, arch)
	marker := dir + completeSuffix

	if err := os.RemoveAll(marker); err != nil {
		return "", fmt.Errorf("removing stale marker %s: %w", marker, err)
	}

	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("removing stale entry %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating cache entry %s: %w", dir, err)
	}

	c.logger.Debug("caching file", "src", src, "dir", dir, "name", targetName)

	if err := copyExecutable(src, filepath.Join(dir, targetName)); err != nil {
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			c.logger.Warn("failed to clean up cache entry", "dir", dir, "err", removeErr)
		}

		return "", fmt.Errorf("caching %s: %w", src, err)
	}

	meta := &Entry{
		Tool:     tool,
		Version:  cleanVersion(ver),
		Arch:     arch,
		Source:   src,
		CachedAt: c.now().UTC(),
	}
	if err := writeMeta(marker, meta); err != nil {
		return "", fmt.Errorf("writing cache marker: %w", err)
	}

	return dir, nil
}

// Entries returns the completed entries of tool for arch, oldest version first.
// Markers written by other tools may not carry metadata; those entries are
// still listed with the key fields filled in.
func (c *Cache) Entries(tool, arch string) ([]Entry, error) {
	vers, err := c.Versions(tool, arch)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(vers))

	for _, ver := range vers {
		dir := filepath.Join(c.root, tool, ver, arch)

		meta, err := readMeta(dir + completeSuffix)
		if err != nil || meta.Tool == "" {
			meta = &Entry{Tool: tool, Version: ver, Arch: arch}
		}

		meta.Dir = dir
		entries = append(entries, *meta)
	}

	return entries, nil
}

// Versions lists the completed versions of tool for arch, oldest first.
func (c *Cache) Versions(tool, arch string) ([]string, error) {
	toolDir := filepath.Join(c.root, tool)

	entries, err := os.ReadDir(toolDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading %s: %w", toolDir, err)
	}

	var found []string

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if complete(filepath.Join(toolDir, entry.Name(), arch)) {
			found = append(found, entry.Name())
		}
	}

	sortVersions(found)

	return found, nil
}

// Remove deletes every cached version of tool. It reports the directory that
// was removed; removing a tool that was never cached is not an error.
func (c *Cache) Remove(tool string) (string, error) {
	toolDir := filepath.Join(c.root, tool)

	if err := os.RemoveAll(toolDir); err != nil {
		return "", fmt.Errorf("removing %s: %w", toolDir, err)
	}

	c.logger.Debug("tool cache removed", "tool", tool, "dir", toolDir)

	return toolDir, nil
}

func (c *Cache) entryDir(tool, ver, arch string) string {
	return filepath.Join(c.root, tool, cleanVersion(ver), arch)
}

// complete reports whether dir exists and carries its completion marker.
func complete(dir string) bool {
	if _, err := os.Stat(dir + completeSuffix); err != nil {
		return false
	}

	info, err := os.Stat(dir)

	return err == nil && info.IsDir()
}

// cleanVersion normalizes a parseable version ("v1.2.3" → "1.2.3") and leaves
// anything else as given.
func cleanVersion(ver string) string {
	v, err := version.NewVersion(strings.TrimSpace(ver))
	if err != nil {
		return ver
	}

	return v.String()
}

// sortVersions orders semantic versions ascending; unparseable names sort
// lexically after them.
func sortVersions(vers []string) {
	sort.SliceStable(vers, func(i, j int) bool {
		a, errA := version.NewVersion(vers[i])
		b, errB := version.NewVersion(vers[j])

		switch {
		case errA == nil && errB == nil:
			return a.LessThan(b)
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return vers[i] < vers[j]
		}
	})
}

func copyExecutable(src, dst string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755) //nolint:gosec // cached tools must be executable
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()

		return err
	}

	return out.Close()
}

func readMeta(path string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var meta Entry
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func writeMeta(path string, meta *Entry) error {
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644) //nolint:gosec // marker is not sensitive
}
