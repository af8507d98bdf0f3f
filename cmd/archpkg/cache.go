package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/logger"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/common/output"
	"github.com/xmengnet/astrbot-plugin-archlinux-package-search/internal/lookup"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the lookup result cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached lookup results",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cache := mustOpenCache()
		entries := cache.Len()
		if err := cache.Clear(); err != nil {
			logger.Error("clearing cache: %v", err)
			os.Exit(1)
		}
		output.PrintSuccess("Cleared %d cached lookups", entries)
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the cache file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cache := mustOpenCache()
		fmt.Println(cache.Path())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}

func mustOpenCache() *lookup.Cache {
	cfg, err := loadConfig()
	if err != nil {
		logger.Error("loading config: %v", err)
		os.Exit(1)
	}

	dir, err := cfg.CacheDir()
	if err != nil {
		logger.Error("resolving cache directory: %v", err)
		os.Exit(1)
	}

	cache, err := lookup.NewCache(dir, lookup.WithTTL(cfg.CacheTTL()))
	if err != nil {
		logger.Error("opening cache: %v", err)
		os.Exit(1)
	}
	return cache
}
