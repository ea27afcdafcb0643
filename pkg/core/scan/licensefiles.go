package scan

import (
	"path"
	"slices"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

// maxLicenseFileSize caps how much of a single license file is read.
const maxLicenseFileSize = 256 << 10

// IsLicenseFile reports whether a file name looks like a license file.
func IsLicenseFile(name string) bool {
	n := strings.ToLower(name)
	return strings.HasPrefix(n, "license") || strings.HasPrefix(n, "licence") ||
		strings.HasPrefix(n, "copying") || strings.HasPrefix(n, "unlicense")
}

// readLicenseFiles adds the license files directly under p's install path
// to its evidence. Relative install paths are relative to root.
func (s *Scanner) readLicenseFiles(root string, p *deps.Package) {
	if p.InstallPath == "" {
		return
	}
	dir := p.InstallPath
	if !path.IsAbs(dir) {
		dir = path.Join(root, dir)
	}
	entries, err := s.opts.FS.ReadDir(dir)
	if err != nil {
		return
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && e.Size() <= maxLicenseFileSize && IsLicenseFile(e.Name()) {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	for _, name := range names {
		data, err := util.ReadFile(s.opts.FS, path.Join(dir, name))
		if err != nil {
			s.opts.Logger.Debugf("read %s: %v", path.Join(dir, name), err)
			continue
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			p.Evidence.FileTexts = append(p.Evidence.FileTexts, string(data))
		}
	}
}
