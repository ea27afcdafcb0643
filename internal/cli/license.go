package cli

import (
	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/core/license"
	"github.com/matzehuels/licensetower/pkg/errors"
)

func (c *CLI) licenseCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "license [name or expression]",
		Short: "Resolve a license name, expression or license file",
		Example: `  licensetower license "Apache 2.0"
  licensetower license "MIT OR Apache-2.0"
  licensetower license --file vendor/github.com/pkg/errors/LICENSE`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := license.Default()
			if file != "" {
				data, err := util.ReadFile(c.FS, absPath(file))
				if err != nil {
					return errors.Wrap(errors.ErrCodeNotFound, err, "read %s", file)
				}
				l := m.FindByText(string(data))
				if l.IsUnknown() {
					return errors.New(errors.ErrCodeNotFound, "%s does not match a known license text", file)
				}
				printLicense(c.Out, l)
				return nil
			}
			if len(args) == 0 {
				return errors.New(errors.ErrCodeInvalidOption, "a license name or --file is required")
			}
			if err := errors.ValidateLicenseQuery(args[0]); err != nil {
				return err
			}
			set := m.FindAllByName(args[0])
			if !set.HasKnown() {
				return errors.New(errors.ErrCodeNotFound, "no license matches %q", args[0])
			}
			for _, l := range set.WithoutUnknown().Slice() {
				printLicense(c.Out, l)
			}
			if set.Len() != set.WithoutUnknown().Len() {
				printWarning(c.Out, "part of %q is not a known license", args[0])
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "classify the text of a license file")
	return cmd
}
