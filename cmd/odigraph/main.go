// odigraph/cmd/odigraph/main.go
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sghaida/odigraph/decl"
	"github.com/sghaida/odigraph/graph"
)

type cli struct {
	stdout   io.Writer
	stderr   io.Writer
	logLevel string
	log      zerolog.Logger
}

func run(args []string, stdout, stderr io.Writer) error {
	c := &cli{stdout: stdout, stderr: stderr, log: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "odigraph",
		Short:         "Validate, inspect and run dependency-injection binding graphs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			lvl, err := zerolog.ParseLevel(strings.ToLower(c.logLevel))
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", c.logLevel, err)
			}
			c.log = zerolog.New(zerolog.ConsoleWriter{Out: c.stderr, NoColor: true}).
				Level(lvl).
				With().Timestamp().Logger()
			return nil
		},
	}
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "log level (trace|debug|info|warn|error)")
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		c.validateCmd(),
		c.dumpCmd(),
		c.genCmd(),
		c.runCmd(),
	)
	return root.Execute()
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "odigraph:", err)
		os.Exit(1)
	}
}

// load reads the declarations at path and builds their graphs.
func (c *cli) load(path string) (*decl.Declarations, *graph.Tree, error) {
	d, err := decl.Load(path)
	if err != nil {
		return nil, nil, err
	}
	c.log.Info().
		Str("source", path).
		Str("apiVersion", d.Version.String()).
		Int("components", len(d.Components)).
		Msg("declarations loaded")
	return d, d.Build(graph.WithLogger(c.log)), nil
}

// findGraph returns the named graph, or the first root when name is empty.
func findGraph(tree *graph.Tree, name string) (*graph.Graph, error) {
	if name == "" {
		if len(tree.Roots()) == 0 {
			return nil, fmt.Errorf("no root component declared")
		}
		return tree.Root(0), nil
	}
	g, ok := tree.Find(name)
	if !ok {
		return nil, fmt.Errorf("component %q not found", name)
	}
	return g, nil
}
