package cherrypick

import (
	"fmt"
	"sort"
	"strings"
)

// report renders everything that kept one commit from being committed.
type report struct {
	commit        string
	conflicts     map[string]Conflict
	metaConflicts []string
	pick          *PickResult
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// String returns "" when there is nothing to report.
func (r report) String() string {
	var b strings.Builder

	for _, path := range sortedKeys(r.conflicts) {
		fmt.Fprintf(&b, "Conflicting entries for submodule %s\n", path)
	}
	for _, path := range r.metaConflicts {
		fmt.Fprintf(&b, "Conflict in %s\n", path)
	}
	if r.pick != nil {
		for _, path := range sortedKeys(r.pick.Conflicts) {
			fmt.Fprintf(&b, "Submodule %s is conflicted while cherry-picking %s\n", path, shortSHA(r.pick.Conflicts[path]))
		}
		for _, path := range sortedKeys(r.pick.Errors) {
			fmt.Fprintf(&b, "Error in submodule %s: %s\n", path, r.pick.Errors[path])
		}
	}

	if b.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("Cherry-pick of %s stopped:\n%s", shortSHA(r.commit), b.String())
}
