// Package scan aggregates the package-manager adapters into one license
// report per project.
//
// A [Scanner] runs every detected adapter of a project in registration
// order, reads license files found under each package's install path,
// optionally consults the ecosystem registry for packages without any
// license evidence, and resolves every package against the license corpus.
// Packages reported by more than one adapter are merged by (name, version)
// according to the configured [deps.MergePolicy].
//
//	s := scan.New(scan.Options{Logger: logger, Prepare: true})
//	res, err := s.Resolve(ctx, "/path/to/project")
//	for _, p := range res.Packages {
//	    fmt.Println(p.Name, p.Version, p.Licenses)
//	}
//
// Adapters of one project never run concurrently. [Scanner.ResolveAll]
// scans independent projects with a bounded worker pool.
package scan
