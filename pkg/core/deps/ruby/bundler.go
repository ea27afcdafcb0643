package ruby

import (
	"bufio"
	"bytes"
	"context"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/util"

	"github.com/matzehuels/licensetower/pkg/cache"
	"github.com/matzehuels/licensetower/pkg/core/deps"
	"github.com/matzehuels/licensetower/pkg/integrations"
	"github.com/matzehuels/licensetower/pkg/integrations/rubygems"
)

// Bundler enumerates gems from Gemfile.lock.
type Bundler struct {
	deps.Base
}

// NewBundler returns a bundler adapter.
func NewBundler(opts deps.Options) (*Bundler, error) {
	base, err := deps.NewBase("bundler", opts)
	if err != nil {
		return nil, err
	}
	base.DefaultRegistry(func(backend cache.Cache, ttl time.Duration) integrations.MetadataFetcher {
		return rubygems.NewClient(backend, ttl)
	})
	return &Bundler{Base: base}, nil
}

func (b *Bundler) Detect() bool {
	return b.Exists("Gemfile") && b.Exists("Gemfile.lock")
}

func (b *Bundler) Prepare(ctx context.Context) error {
	return b.Exec(ctx, b.Command("bundle", "install"))
}

func (b *Bundler) CurrentPackages(ctx context.Context) []*deps.Package {
	out, ok := b.Run(ctx, b.Command("bundle", "list", "--paths"))
	if !ok {
		return []*deps.Package{}
	}
	paths := installPaths(out)

	data, err := b.ReadFile("Gemfile.lock")
	if err != nil {
		b.LogErrors(err.Error())
		return []*deps.Package{}
	}
	specs := parseLockfile(data)

	var groups map[string][]string
	if gemfile, err := b.ReadFile("Gemfile"); err == nil {
		groups = parseGemfileGroups(gemfile)
	}

	pkgs := make([]*deps.Package, 0, len(specs))
	for _, s := range specs {
		pkg := b.NewPackage(s.name, s.version)
		for _, c := range s.deps {
			pkg.AddChild(c)
		}
		for _, g := range groups[s.name] {
			pkg.AddGroup(g)
		}
		if p, ok := paths[s.name+"-"+s.version]; ok {
			pkg.InstallPath = p
		} else if p, ok := paths[s.name+"-"+s.versionNumber()]; ok {
			pkg.InstallPath = p
		}
		if pkg.InstallPath != "" {
			b.readGemspec(pkg)
		}
		pkgs = append(pkgs, pkg)
	}
	return deps.Dedup(pkgs, deps.MergeUnion)
}

// installPaths indexes bundle list --paths output by directory name
// (name-version).
func installPaths(out []byte) map[string]string {
	paths := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		p := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(p, "/") {
			continue
		}
		paths[path.Base(p)] = p
	}
	return paths
}

var (
	gemspecLicensesRE = regexp.MustCompile(`\.licenses\s*=\s*\[([^\]]*)\]`)
	gemspecLicenseRE  = regexp.MustCompile(`\.license\s*=\s*["']([^"']+)["']`)
	gemspecSummaryRE  = regexp.MustCompile(`\.summary\s*=\s*["']([^"']*)["']`)
	gemspecHomepageRE = regexp.MustCompile(`\.homepage\s*=\s*["']([^"']*)["']`)
	quotedRE          = regexp.MustCompile(`["']([^"']+)["']`)
)

// readGemspec takes licenses, summary and homepage from the installed
// specification, which RubyGems keeps at <gem dir>/../../specifications.
func (b *Bundler) readGemspec(pkg *deps.Package) {
	dir := path.Dir(path.Dir(pkg.InstallPath))
	spec := path.Join(dir, "specifications", path.Base(pkg.InstallPath)+".gemspec")
	data, err := util.ReadFile(b.FS, spec)
	if err != nil {
		return
	}
	if m := gemspecLicensesRE.FindSubmatch(data); m != nil {
		for _, q := range quotedRE.FindAllSubmatch(m[1], -1) {
			pkg.Evidence.Declared = append(pkg.Evidence.Declared, string(q[1]))
		}
	} else if m := gemspecLicenseRE.FindSubmatch(data); m != nil {
		pkg.Evidence.Declared = append(pkg.Evidence.Declared, string(m[1]))
	}
	if m := gemspecSummaryRE.FindSubmatch(data); m != nil {
		pkg.Summary = string(m[1])
	}
	if m := gemspecHomepageRE.FindSubmatch(data); m != nil {
		pkg.Homepage = string(m[1])
	}
}
