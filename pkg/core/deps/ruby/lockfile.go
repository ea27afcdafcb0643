package ruby

import (
	"bufio"
	"bytes"
	"regexp"
	"strings"

	"github.com/matzehuels/licensetower/pkg/core/deps"
)

type lockSpec struct {
	name    string
	version string // as written, may carry a platform suffix
	deps    []string
}

// versionNumber drops a platform suffix such as "-x86_64-linux".
func (s lockSpec) versionNumber() string {
	v, _, _ := strings.Cut(s.version, "-")
	return v
}

var specRE = regexp.MustCompile(`^ {4}(\S+) \(([^)]+)\)$`)
var specDepRE = regexp.MustCompile(`^ {6}(\S+)`)

// parseLockfile reads the specs of every source section (GEM, GIT, PATH)
// of a Gemfile.lock.
func parseLockfile(data []byte) []lockSpec {
	var (
		specs   []lockSpec
		inSpecs bool
	)
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \r")
		switch {
		case line == "":
			inSpecs = false
		case strings.TrimSpace(line) == "specs:":
			inSpecs = true
		case !inSpecs:
		case specRE.MatchString(line):
			m := specRE.FindStringSubmatch(line)
			specs = append(specs, lockSpec{name: m[1], version: m[2]})
		case specDepRE.MatchString(line) && len(specs) > 0:
			last := &specs[len(specs)-1]
			last.deps = append(last.deps, specDepRE.FindStringSubmatch(line)[1])
		}
	}
	return specs
}

var (
	gemRE      = regexp.MustCompile(`^\s*gem\s+['"]([^'"]+)['"](.*)$`)
	groupRE    = regexp.MustCompile(`^\s*group\s+(.+?)\s+do\s*$`)
	groupOptRE = regexp.MustCompile(`groups?:\s*(\[[^\]]*\]|:\w+|["']\w+["'])`)
	symbolRE   = regexp.MustCompile(`:?["']?(\w+)["']?`)
	blockRE    = regexp.MustCompile(`\bdo\s*(\|[^|]*\|)?\s*$`)
)

// parseGemfileGroups maps direct gems to their Gemfile groups. Gems outside
// any group block are runtime dependencies; "development" and "test" map to
// the development group.
func parseGemfileGroups(data []byte) map[string][]string {
	out := make(map[string][]string)
	var stack [][]string // group lists of open blocks; nil for non-group blocks

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") || trimmed == "" {
			continue
		}
		if m := groupRE.FindStringSubmatch(line); m != nil {
			stack = append(stack, symbols(m[1]))
			continue
		}
		if trimmed == "end" {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			continue
		}
		m := gemRE.FindStringSubmatch(line)
		if m == nil {
			if blockRE.MatchString(line) {
				stack = append(stack, nil)
			}
			continue
		}

		var groups []string
		for _, g := range stack {
			groups = append(groups, g...)
		}
		if opt := groupOptRE.FindStringSubmatch(m[2]); opt != nil {
			groups = append(groups, symbols(opt[1])...)
		}
		if len(groups) == 0 {
			groups = []string{"default"}
		}
		for _, g := range groups {
			out[m[1]] = appendGroup(out[m[1]], mapGroup(g))
		}
	}
	return out
}

func symbols(s string) []string {
	var out []string
	for _, m := range symbolRE.FindAllStringSubmatch(s, -1) {
		out = append(out, m[1])
	}
	return out
}

func mapGroup(g string) string {
	switch g {
	case "default":
		return deps.GroupRuntime
	case "development", "test":
		return deps.GroupDevelopment
	}
	return g
}

func appendGroup(list []string, g string) []string {
	for _, v := range list {
		if v == g {
			return list
		}
	}
	return append(list, g)
}
