package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/verdict-tools/verdict/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the analysis result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached analysis results",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		if err := c.Clear(); err != nil {
			return err
		}
		stdoutFormatter().Success("Cache cleared")
		return nil
	},
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache()
		if err != nil {
			return err
		}
		removed := c.Cleanup()
		f := stdoutFormatter()
		if removed == 0 {
			f.Warning("No expired entries to remove")
			return nil
		}
		f.Success("Removed %d expired entries", removed)
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache location and entry count",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		entries, err := filepath.Glob(filepath.Join(cfg.Cache.Dir, "*.json"))
		if err != nil {
			return err
		}
		w := stdoutFormatter().Writer()
		fmt.Fprintf(w, "dir:         %s\n", cfg.Cache.Dir)
		fmt.Fprintf(w, "entries:     %d\n", len(entries))
		fmt.Fprintf(w, "ttl:         %s\n", cfg.Cache.TTL())
		fmt.Fprintf(w, "max entries: %d\n", cfg.Cache.MaxEntries)
		return nil
	},
}

func openCache() (*cache.Cache, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return cache.New(cfg.Cache.Dir,
		cache.WithTTL(cfg.Cache.TTL()),
		cache.WithMaxEntries(cfg.Cache.MaxEntries),
	)
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	rootCmd.AddCommand(cacheCmd)
}
