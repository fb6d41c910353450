package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/bpeabody/git-meta/internal/output"
	"github.com/bpeabody/git-meta/internal/status"
)

// unknownSubmodules returns the requested names that match no submodule,
// either exactly or as a directory prefix.
func unknownSubmodules(requested, names []string) []string {
	var unknown []string
	for _, req := range requested {
		req = strings.TrimSuffix(req, "/")
		found := false
		for _, name := range names {
			if name == req || strings.HasPrefix(name, req+"/") {
				found = true
				break
			}
		}
		if !found {
			unknown = append(unknown, req)
		}
	}
	return unknown
}

// suggest returns up to three submodule names resembling name, best first.
func suggest(name string, names []string) []string {
	matches := fuzzy.Find(name, names)
	var out []string
	for i, m := range matches {
		if i == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

// unknownSubmoduleError describes requested names that are not submodules.
func unknownSubmoduleError(unknown, names []string) error {
	var b strings.Builder
	for i, name := range unknown {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "unknown submodule %q", name)
		if s := suggest(name, names); len(s) > 0 {
			fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(s, ", "))
		}
	}
	return fmt.Errorf("%s", b.String())
}

// renderStatus formats rs. With all set every submodule is listed, otherwise
// only those that are not clean.
func renderStatus(rs *status.RepoStatus, all bool) string {
	var b strings.Builder

	switch {
	case rs.HeadCommit == "":
		fmt.Fprintf(&b, "On branch %s (no commits yet)\n", rs.CurrentBranch)
	case rs.CurrentBranch == "":
		fmt.Fprintf(&b, "HEAD detached at %s\n", short(rs.HeadCommit))
	default:
		fmt.Fprintf(&b, "On branch %s\n", rs.CurrentBranch)
	}

	if seq := rs.Sequencer; seq != nil {
		op := strings.ReplaceAll(strings.ToLower(seq.Type.String()), "_", "-")
		fmt.Fprintf(&b, "%s\n", output.WarningStyle.Render(fmt.Sprintf(
			"A %s is in progress (commit %d of %d, %s)",
			op, seq.CurrentCommit+1, len(seq.Commits), short(seq.Current()))))
	}

	writeFiles(&b, "Staged changes:", rs.Staged)
	writeFiles(&b, "Changes not staged:", rs.Workdir)

	var rows [][]string
	for _, name := range rs.SubmoduleNames() {
		sub := rs.Submodules[name]
		if !all && sub.IsClean() {
			continue
		}
		rows = append(rows, []string{name, commitColumn(sub), indexColumn(sub), workdirColumn(sub)})
	}
	if len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(output.RenderTable([]string{"SUBMODULE", "COMMIT", "INDEX", "WORKDIR"}, rows))
	}

	if rs.IsClean() {
		b.WriteString(output.MutedStyle.Render("nothing to commit, working tree clean"))
		b.WriteString("\n")
	}
	return b.String()
}

func writeFiles(b *strings.Builder, heading string, files map[string]status.FileStatus) {
	if len(files) == 0 {
		return
	}
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	b.WriteString("\n")
	b.WriteString(output.HeadingStyle.Render(heading))
	b.WriteString("\n")
	for _, p := range paths {
		st := files[p]
		label := fmt.Sprintf("%-10s", st.String()+":")
		switch st {
		case status.Conflicted, status.Removed:
			label = output.ErrorStyle.Render(label)
		case status.Added:
			label = output.SuccessStyle.Render(label)
		default:
			label = output.WarningStyle.Render(label)
		}
		fmt.Fprintf(b, "  %s %s\n", label, p)
	}
}

func commitColumn(sub *status.Submodule) string {
	if sub.Commit == nil {
		return "-"
	}
	return short(sub.Commit.SHA)
}

func indexColumn(sub *status.Submodule) string {
	switch {
	case sub.Index == nil:
		return "removed"
	case sub.IsNew():
		return "new " + short(sub.Index.SHA)
	case sub.Commit.URL != sub.Index.URL:
		return fmt.Sprintf("%s (url %s)", short(sub.Index.SHA), sub.Index.URL)
	case sub.Index.Relation == status.Same:
		return "="
	}
	return fmt.Sprintf("%s (%s)", short(sub.Index.SHA), sub.Index.Relation)
}

func workdirColumn(sub *status.Submodule) string {
	wd := sub.Workdir
	if wd == nil {
		return output.MutedStyle.Render("closed")
	}
	var col string
	if wd.Relation == status.Same {
		col = "="
	} else {
		col = fmt.Sprintf("%s (%s)", short(wd.Status.HeadCommit), wd.Relation)
	}
	if !wd.Status.IsClean() {
		col += " " + output.WarningStyle.Render("modified")
	}
	return col
}
