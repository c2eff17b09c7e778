package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sghaida/odigraph/validation"
)

// ErrInvalid is returned by validate when any root reports an error.
var ErrInvalid = errors.New("validation failed")

func (c *cli) validateCmd() *cobra.Command {
	var warnings bool
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Build every root component and report validation messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, tree, err := c.load(args[0])
			if err != nil {
				return err
			}
			failed := 0
			for _, root := range tree.Roots() {
				res := validation.Validate(root)
				for _, m := range res.Messages {
					if m.Kind == validation.Warning && !warnings {
						continue
					}
					fmt.Fprintln(c.stdout, m.Error())
				}
				n := len(res.Errors())
				failed += n
				c.log.Debug().Str("component", root.Path()).Int("errors", n).Msg("validated")
			}
			if failed > 0 {
				return fmt.Errorf("%w: %d error(s)", ErrInvalid, failed)
			}
			fmt.Fprintf(c.stdout, "ok: %d root component(s) in %s\n", len(tree.Roots()), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&warnings, "warnings", false, "also print plain warnings")
	return cmd
}
