package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bpeabody/git-meta/internal/cherrypick"
	"github.com/bpeabody/git-meta/internal/output"
)

// renderResult formats the outcome of a cherry-pick or continue.
func renderResult(r *cherrypick.Result) string {
	var b strings.Builder

	picked := make([]string, 0, len(r.NewCommits))
	for src := range r.NewCommits {
		picked = append(picked, src)
	}
	sort.Strings(picked)
	for _, src := range picked {
		fmt.Fprintf(&b, "%s %s -> %s\n",
			output.SuccessStyle.Render("Picked"), short(src), short(r.NewCommits[src]))
	}

	subs := make([]string, 0, len(r.SubmoduleCommits))
	for path, commits := range r.SubmoduleCommits {
		if len(commits) > 0 {
			subs = append(subs, path)
		}
	}
	sort.Strings(subs)
	for _, path := range subs {
		n := len(r.SubmoduleCommits[path])
		fmt.Fprintf(&b, "  %s %s\n", path, output.MutedStyle.Render(plural(n, "commit")))
	}

	if !r.Succeeded() {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(output.WarningStyle.Render(strings.TrimRight(r.ErrorMessage, "\n")))
		b.WriteString("\n\n")
		b.WriteString("Resolve the conflicts, stage the results, then run 'git-meta cherry-pick --continue'.\n")
		b.WriteString("To give up, run 'git-meta cherry-pick --abort'.\n")
	}
	return b.String()
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
