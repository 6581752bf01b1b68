package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// newCacheCommand builds the "cache" command group for inspecting and
// clearing the on-disk response cache.
func newCacheCommand(c **CLI) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the on-disk response cache",
	}
	cmd.AddCommand(newCachePathCommand(c))
	cmd.AddCommand(newCacheClearCommand(c))
	return cmd
}

func newCachePathCommand(c **CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configured cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := (*c).Config.CacheDir
			if dir == "" {
				dir = "(unset: get uses a temporary directory per invocation)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), dir)
			return nil
		},
	}
}

func newCacheClearCommand(c **CLI) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry from the configured cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := (*c).Config.CacheDir
			if dir == "" {
				return fmt.Errorf("jusctl: no cache_dir configured, nothing to clear")
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("jusctl: reading cache dir: %w", err)
			}
			removed := 0
			for _, e := range entries {
				if err := os.Remove(dir + "/" + e.Name()); err == nil {
					removed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries from %s\n", removed, dir)
			return nil
		},
	}
}
