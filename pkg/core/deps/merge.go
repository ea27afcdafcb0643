package deps

import (
	"fmt"

	"github.com/matzehuels/licensetower/pkg/errors"
)

// MergePolicy decides how duplicate packages from different adapters are
// reconciled.
type MergePolicy int

const (
	// MergeUnion records every contributing adapter in Provenance.
	MergeUnion MergePolicy = iota
	// MergeFirstWins keeps the provenance of the first adapter. Licenses
	// and evidence are still unioned.
	MergeFirstWins
)

var mergePolicyNames = map[MergePolicy]string{
	MergeUnion:     "union",
	MergeFirstWins: "first-wins",
}

func (p MergePolicy) String() string {
	if s, ok := mergePolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("MergePolicy(%d)", int(p))
}

// ParseMergePolicy parses "union" or "first-wins". An empty string is the
// default, MergeUnion.
func ParseMergePolicy(s string) (MergePolicy, error) {
	switch s {
	case "", "union":
		return MergeUnion, nil
	case "first-wins":
		return MergeFirstWins, nil
	}
	return 0, errors.ValidateChoice("merge policy", s, []string{"union", "first-wins"})
}
