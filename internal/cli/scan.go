package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/licensetower/pkg/core/scan"
	"github.com/matzehuels/licensetower/pkg/errors"
	rio "github.com/matzehuels/licensetower/pkg/io"
)

// scanFlags holds the scan command's flags. Flags override the
// configuration file only when set.
type scanFlags struct {
	managers      []string
	prepare       bool
	enrich        bool
	mergePolicy   string
	pythonVersion string
	requirements  string
	workers       int
	json          bool
	output        string
	failOnUnknown bool
}

func (c *CLI) scanCommand() *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Report the licenses of a project's dependencies",
		Long: `Scan detects the package managers used in each project, enumerates their
installed dependencies and resolves every dependency to a license.

Several paths are scanned concurrently. The project's .licensetower.yml is
read from the first path unless --config is given.

Registries (PyPI, npm, crates.io, RubyGems, Packagist) are only queried with
--enrich. Package summaries and the license fallback for packages that
declare nothing need it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runScan(cmd, args, &f)
		},
	}
	flags := cmd.Flags()
	flags.StringSliceVarP(&f.managers, "package-managers", "m", nil, "restrict to these package managers")
	flags.BoolVar(&f.prepare, "prepare", false, "install dependencies before scanning")
	flags.BoolVar(&f.enrich, "enrich", false, "query package registries for summaries, homepages and missing licenses")
	flags.StringVar(&f.mergePolicy, "merge-policy", "", "merge policy for packages reported twice: union or first-wins")
	flags.StringVar(&f.pythonVersion, "python-version", "", "pip/python major version: 2 or 3")
	flags.StringVar(&f.requirements, "requirements", "", "pip requirements file relative to the project")
	flags.IntVar(&f.workers, "workers", 0, "projects scanned concurrently")
	flags.BoolVar(&f.json, "json", false, "write the report as JSON to stdout")
	flags.StringVarP(&f.output, "output", "o", "", "write the JSON report to a file")
	flags.BoolVar(&f.failOnUnknown, "fail-on-unknown", false, "exit non-zero when a license cannot be resolved")
	return cmd
}

// applyScanFlags copies the flags the user set over the loaded
// configuration.
func applyScanFlags(cmd *cobra.Command, s *settings, f *scanFlags) {
	set := cmd.Flags().Changed
	cfg := s.cfg
	if set("package-managers") {
		cfg.PackageManagers = f.managers
	}
	if set("prepare") {
		cfg.Prepare = f.prepare
	}
	if set("enrich") {
		cfg.Enrich = f.enrich
	}
	if set("merge-policy") {
		cfg.MergePolicy = f.mergePolicy
	}
	if set("python-version") {
		cfg.Python.Version = f.pythonVersion
	}
	if set("requirements") {
		cfg.Python.RequirementsPath = f.requirements
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
}

func (c *CLI) runScan(cmd *cobra.Command, args []string, f *scanFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	if len(args) == 0 {
		args = []string{"."}
	}
	paths := make([]string, len(args))
	for i, a := range args {
		paths[i] = absPath(a)
	}

	s, err := c.loadSettings(paths[0])
	if err != nil {
		return err
	}
	applyScanFlags(cmd, s, f)
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	scanner, backend, err := c.newScanner(ctx, s)
	if err != nil {
		return err
	}
	defer backend.Close()

	var sp *Spinner
	if !f.json && logger.GetLevel() > LogDebug {
		sp = newSpinnerWithContext(ctx, c.errOut(), "Scanning dependencies...")
		sp.Start()
	}
	prog := newProgress(logger)

	var results []*scan.Result
	if len(paths) == 1 {
		var res *scan.Result
		res, err = scanner.Resolve(ctx, paths[0], s.cfg.PackageManagers...)
		results = []*scan.Result{res}
	} else {
		results, err = scanner.ResolveAll(ctx, paths, s.cfg.PackageManagers...)
	}
	if sp != nil {
		if err != nil {
			sp.StopWithError("Scan failed")
		} else {
			sp.Stop()
		}
	}
	if err != nil {
		return err
	}
	prog.done("Scan finished")

	switch {
	case f.output != "":
		if err := rio.ExportJSON(absPath(f.output), results...); err != nil {
			return err
		}
		printSuccess(c.Out, "Report written")
		printFile(c.Out, f.output)
	case f.json:
		if err := rio.WriteJSON(c.Out, results...); err != nil {
			return err
		}
	default:
		for _, res := range results {
			printReport(c.Out, res)
		}
	}

	if f.failOnUnknown {
		return checkUnknown(results)
	}
	return nil
}

// checkUnknown fails when any result holds a package with an unknown
// license.
func checkUnknown(results []*scan.Result) error {
	unknown := 0
	for _, res := range results {
		unknown += len(res.Unknown())
	}
	if unknown > 0 {
		return errors.New(errors.ErrCodeNotFound, "%d packages have unknown licenses", unknown)
	}
	return nil
}
