package main

import (
	"fmt"
	"time"

	"scribe/internal/cache"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the home page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop every cached home feed page",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := openRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close()

		if rt.rdb == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "redis is not configured; each server process holds its own cache")
			return nil
		}
		pages := cache.NewPageCache(rt.rdb, time.Duration(rt.cfg.IndexCacheSeconds)*time.Second)
		if err := pages.Invalidate(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "home page cache cleared")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
