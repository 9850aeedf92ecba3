package cmd

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/setup-kustomize/internal/release"
	"github.com/donaldgifford/setup-kustomize/internal/toolcache"
	"github.com/donaldgifford/setup-kustomize/internal/tools"
	"github.com/donaldgifford/setup-kustomize/internal/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached kustomize binaries",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached kustomize versions",
	Long:  `List the kustomize versions in the tool cache for the selected architecture.`,
	RunE:  runCacheList,
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove cached kustomize binaries",
	Long:  `Remove every cached kustomize version, for all architectures, to free disk space.`,
	RunE:  runCacheClean,
}

func init() {
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheList(cmd *cobra.Command, _ []string) error {
	w := ui.NewWriterWithOutputs(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor || os.Getenv("NO_COLOR") != "")

	tool := release.Kustomize().ToolName
	arch := tools.NormalizeArch(cfg.Arch)
	cache := toolcache.New(cacheRoot(), slog.Default())

	entries, err := cache.Entries(tool, arch)
	if err != nil {
		return fmt.Errorf("listing cache: %w", err)
	}

	if len(entries) == 0 {
		w.Infof("No cached %s versions for %s in %s", tool, arch, cache.Root())

		return nil
	}

	w.Infof("Cached %s versions for %s in %s", w.Bold(tool), arch, cache.Root())

	for _, e := range entries {
		detail := e.Dir
		if !e.CachedAt.IsZero() {
			detail = e.CachedAt.Local().Format(time.DateTime) + "  " + e.Dir
		}

		w.Item(e.Version, detail)
	}

	return nil
}

func runCacheClean(cmd *cobra.Command, _ []string) error {
	logger := slog.Default()
	w := ui.NewWriterWithOutputs(cmd.OutOrStdout(), cmd.ErrOrStderr(), noColor || os.Getenv("NO_COLOR") != "")

	tool := release.Kustomize().ToolName
	cache := toolcache.New(cacheRoot(), logger)
	toolDir := filepath.Join(cache.Root(), tool)

	size, err := dirSize(toolDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("measuring %s: %w", toolDir, err)
	}

	logger.Debug("removing cache directory", "dir", toolDir, "size", size)

	if _, err := cache.Remove(tool); err != nil {
		return fmt.Errorf("cleaning %s cache: %w", tool, err)
	}

	if size > 0 {
		w.Successf("Cleaned %s cache (%s)", tool, formatBytes(size))
	} else {
		w.Infof("%s cache already clean", tool)
	}

	return nil
}

func dirSize(path string) (int64, error) {
	var size int64

	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.IsDir() {
			info, infoErr := d.Info()
			if infoErr != nil {
				return infoErr
			}

			size += info.Size()
		}

		return nil
	})

	return size, err
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)

	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
