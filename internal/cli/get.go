package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/apptik-go/jus"
	"github.com/apptik-go/jus/pkg/cache"
)

// newGetCommand builds the "get" subcommand: perform one GET through a
// RequestQueue backed by a DiskCache and the default net/http stack,
// printing the body to stdout once it's delivered.
func newGetCommand(c **CLI) *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Perform a cached GET request and print the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(*c, args[0], noCache, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the response cache for this request")
	return cmd
}

func runGet(c *CLI, url string, noCache bool, out io.Writer) error {
	dir := c.Config.CacheDir
	if dir == "" {
		var err error
		dir, err = os.MkdirTemp("", "jusctl-cache-*")
		if err != nil {
			return fmt.Errorf("jusctl: creating cache dir: %w", err)
		}
	}
	diskCache := cache.NewDiskCache(dir, c.Config.CacheMaxSizeBytes, c.Config.CacheHysteresisFactor)

	stack := jus.NewNetHTTPStack(nil, nil)
	network := jus.NewBasicNetwork(stack, nil, nil)
	network.SetSlowRequestThreshold(c.Config.SlowRequestThreshold())

	q := jus.New(diskCache, network, nil, c.Config.NetworkThreadPoolSize)
	if err := q.Start(); err != nil {
		return fmt.Errorf("jusctl: starting queue: %w", err)
	}
	defer q.Stop()

	done := make(chan error, 1)
	r := jus.NewTypedRequest("GET", url, func(resp *jus.NetworkResponse) ([]byte, error) {
		return resp.Data, nil
	}, jus.Listener[[]byte]{
		OnSuccess: func(body []byte) {
			fmt.Fprintln(out, string(body))
			done <- nil
		},
		OnError: func(err error) { done <- err },
	})
	r.SetShouldCache(!noCache)
	r.SetRetryPolicy(c.Config.RetryPolicy())
	q.Add(r)

	return <-done
}
