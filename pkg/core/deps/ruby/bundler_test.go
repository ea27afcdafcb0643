package ruby

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/licensetower/pkg/command/commandtest"
	"github.com/matzehuels/licensetower/pkg/core/deps"
)

const gemfile = `source "https://rubygems.org"

gem "rails", "~> 7.0"
gem 'rake', group: :development

group :development, :test do
  gem "rspec"
end

platforms :jruby do
  gem "jruby-openssl"
end
`

const gemfileLock = `GEM
  remote: https://rubygems.org/
  specs:
    rails (7.0.0)
      rake (>= 12.2)
    rake (13.0.6)
    rspec (3.12.0)
    nokogiri (1.15.0-x86_64-linux)

PLATFORMS
  ruby

DEPENDENCIES
  rails (~> 7.0)
  rake
  rspec

BUNDLED WITH
   2.4.10
`

const rakeSpec = `# -*- encoding: utf-8 -*-
Gem::Specification.new do |s|
  s.name = "rake".freeze
  s.version = "13.0.6"
  s.homepage = "https://github.com/ruby/rake".freeze
  s.licenses = ["MIT".freeze]
  s.summary = "Rake is a Make-like program implemented in Ruby".freeze
end
`

const bundleList = `/gems/3.2.0/gems/rails-7.0.0
/gems/3.2.0/gems/rake-13.0.6
/gems/3.2.0/gems/nokogiri-1.15.0-x86_64-linux
`

func newBundler(t *testing.T, runner *commandtest.Runner) *Bundler {
	t.Helper()
	fs := memfs.New()
	for name, content := range map[string]string{
		"/proj/Gemfile":      gemfile,
		"/proj/Gemfile.lock": gemfileLock,
		"/gems/3.2.0/specifications/rake-13.0.6.gemspec": rakeSpec,
	} {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	b, err := NewBundler(deps.Options{ProjectPath: "/proj", FS: fs, Runner: runner})
	require.NoError(t, err)
	return b
}

func TestBundler(t *testing.T) {
	runner := commandtest.New().
		On("bundle install", commandtest.Response{}).
		On("bundle list --paths", commandtest.Response{Stdout: bundleList})
	b := newBundler(t, runner)
	assert.True(t, b.Detect())
	require.NoError(t, b.Prepare(context.Background()))

	pkgs := b.CurrentPackages(context.Background())
	require.Len(t, pkgs, 4)

	rails, rake, rspec, nokogiri := pkgs[0], pkgs[1], pkgs[2], pkgs[3]
	assert.Equal(t, "rails", rails.Name)
	assert.Equal(t, []string{"rake"}, rails.Children)
	assert.Equal(t, []string{deps.GroupRuntime}, rails.Groups)
	assert.Empty(t, rails.Evidence.Declared)

	assert.Equal(t, "13.0.6", rake.Version)
	assert.Equal(t, "/gems/3.2.0/gems/rake-13.0.6", rake.InstallPath)
	assert.Equal(t, []string{"MIT"}, rake.Evidence.Declared)
	assert.Equal(t, "Rake is a Make-like program implemented in Ruby", rake.Summary)
	assert.Equal(t, "https://github.com/ruby/rake", rake.Homepage)
	assert.Equal(t, []string{deps.GroupDevelopment}, rake.Groups)

	assert.Equal(t, []string{deps.GroupDevelopment}, rspec.Groups)
	assert.Equal(t, "", rspec.InstallPath)

	assert.Equal(t, "1.15.0-x86_64-linux", nokogiri.Version)
	assert.Equal(t, "/gems/3.2.0/gems/nokogiri-1.15.0-x86_64-linux", nokogiri.InstallPath)
}

func TestBundlerListFailure(t *testing.T) {
	runner := commandtest.New().On("bundle list --paths", commandtest.Response{ExitCode: 7, Stderr: "Could not locate Gemfile"})
	b := newBundler(t, runner)
	assert.Empty(t, b.CurrentPackages(context.Background()))
}

func TestParseGemfileGroups(t *testing.T) {
	got := parseGemfileGroups([]byte(gemfile))
	assert.Equal(t, map[string][]string{
		"rails":         {deps.GroupRuntime},
		"rake":          {deps.GroupDevelopment},
		"rspec":         {deps.GroupDevelopment},
		"jruby-openssl": {deps.GroupRuntime},
	}, got)
}

func TestParseLockfile(t *testing.T) {
	specs := parseLockfile([]byte(gemfileLock))
	require.Len(t, specs, 4)
	assert.Equal(t, lockSpec{name: "rails", version: "7.0.0", deps: []string{"rake"}}, specs[0])
	assert.Equal(t, "1.15.0", specs[3].versionNumber())
}
