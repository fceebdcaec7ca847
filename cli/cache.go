package cli

import (
	"fmt"

	"github.com/ka2n/getfavicon/api"
	"github.com/ka2n/getfavicon/api/cache"
	"github.com/morikuni/failure/v2"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the page cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cache.New[string](api.PageCacheNamespace)
		if err := c.Clear(); err != nil {
			return failure.Wrap(err, failure.Message("Failed to clear cache"))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", c.Dir())
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
