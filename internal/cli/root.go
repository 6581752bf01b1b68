package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apptik-go/jus/pkg/logging"
)

var (
	version string
	commit  string
)

// SetVersion sets the version information displayed by --version, injected
// via ldflags at build time.
func SetVersion(v, c string) {
	version = v
	commit = c
}

// Execute runs the jusctl CLI and returns an error if any command fails.
func Execute(ctx context.Context) error {
	var verbose bool
	var c *CLI

	root := &cobra.Command{
		Use:          "jusctl",
		Short:        "jusctl drives a prioritized HTTP request queue from the command line",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logging.LevelInfo
			if verbose {
				level = logging.LevelDebug
			}
			var err error
			c, err = New(level)
			return err
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("jusctl %s (%s)\n", version, commit))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newGetCommand(&c))
	root.AddCommand(newCacheCommand(&c))

	return root.ExecuteContext(ctx)
}
