// Package cli implements the svgtrav command-line interface.
//
// Commands:
//   - render: rasterize SVG documents to PNG, several at a time
//   - tree: print the render tree of a document
//   - bbox: print the bounding box of an element
//   - hit: list the elements under a point
//   - measure: print text metrics of a text element
//
// Settings come from a TOML file given with --config; --log-level
// overrides the level it names. The logger and the configuration travel
// to every command through the command context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"svgtrav/pkg/config"
)

var version = "dev"

// SetVersion sets the version printed by --version.
func SetVersion(v string) { version = v }

// Execute runs the svgtrav CLI.
func Execute(ctx context.Context) error {
	return NewRootCommand(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// NewRootCommand builds the command tree. Results are written to out and
// logs to errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	var (
		configPath string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "svgtrav",
		Short:         "Traverse, lay out and rasterize SVG documents",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if logLevel != "" {
				cfg.Log.Level = logLevel
			}
			level, err := cfg.LogLevel()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = withLogger(ctx, newLogger(errOut, level))
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&configPath, "config", "", "TOML configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newTreeCmd())
	root.AddCommand(newBBoxCmd())
	root.AddCommand(newHitCmd())
	root.AddCommand(newMeasureCmd())
	return root
}
