package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/errors"
	rio "github.com/matzehuels/licensetower/pkg/io"
)

func (c *CLI) reportCommand() *cobra.Command {
	var failOnUnknown bool
	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Print a saved scan report",
		Long:  `Report reads a JSON report written by "scan -o" and prints it as tables.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := c.FS.Open(absPath(args[0]))
			if err != nil {
				return errors.Wrap(errors.ErrCodeNotFound, err, "open %s", args[0])
			}
			defer f.Close()

			results, err := rio.ReadJSON(f)
			if err != nil {
				return err
			}
			for _, res := range results {
				printReport(c.Out, res)
			}
			if failOnUnknown {
				return checkUnknown(results)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&failOnUnknown, "fail-on-unknown", false, "exit non-zero when a saved package has an unknown license")
	return cmd
}
