package golang

import "strings"

// inferRepoURL maps module paths on well-known hosts to their repository
// URL, e.g. github.com/spf13/cobra/doc -> https://github.com/spf13/cobra.
func inferRepoURL(modulePath string) string {
	for _, prefix := range []string{"github.com/", "gitlab.com/", "bitbucket.org/"} {
		if strings.HasPrefix(modulePath, prefix) {
			parts := strings.Split(strings.TrimPrefix(modulePath, prefix), "/")
			if len(parts) >= 2 {
				return "https://" + prefix + parts[0] + "/" + parts[1]
			}
		}
	}
	return ""
}
