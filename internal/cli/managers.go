package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/core/deps/managers"
)

func (c *CLI) managersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "managers [path]",
		Short: "List supported package managers and which ones a project uses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				for _, e := range managers.All {
					printKeyValue(c.Out, e.Name, e.Language)
				}
				return nil
			}

			root := absPath(args[0])
			s, err := c.loadSettings(root)
			if err != nil {
				return err
			}
			opts := deps.Options{
				ProjectPath: root,
				FS:          c.FS,
				Runner:      c.Runner,
				Logger:      loggerFromContext(cmd.Context()),
				Env:         s.env,
				Python: deps.PythonOptions{
					Version:          s.cfg.Python.Version,
					RequirementsPath: s.cfg.Python.RequirementsPath,
				},
			}
			found := 0
			for _, e := range managers.All {
				m, err := e.New(opts)
				if err != nil {
					return err
				}
				if m.Detect() {
					found++
					printSuccess(c.Out, "%s %s", e.Name, StyleDim.Render(e.Language))
				}
			}
			if found == 0 {
				printInfo(c.Out, "No supported package manager detected in %s", root)
			} else {
				printDetail(c.Out, "%s", fmt.Sprintf("%d of %d package managers detected", found, len(managers.All)))
			}
			return nil
		},
	}
}
