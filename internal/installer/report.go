package installer

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/outshift-open/hax-cli/internal/filemanager"
	"github.com/outshift-open/hax-cli/internal/registry"
)

// ItemReport is the outcome of writing one resolved item.
type ItemReport struct {
	Name   string
	Type   registry.ItemType
	Source string
	Files  []filemanager.FileResult
}

// Written counts the files that are on disk with the item's content.
func (r ItemReport) Written() int {
	n := 0
	for _, f := range r.Files {
		if f.Err == nil && f.Status != filemanager.StatusFailed {
			n++
		}
	}
	return n
}

// Failed reports whether no file of the item was written.
func (r ItemReport) Failed() bool {
	return r.Written() == 0
}

// Report is the outcome of one Add.
type Report struct {
	Requested string
	// Items are the resolved items in install order; the first is Requested.
	Items []ItemReport
	// Missing are registry dependencies no source could resolve.
	Missing []string
	// Dependencies are the pinned package dependencies of every item.
	Dependencies      []string
	PackagesInstalled bool
	// Backend is the backend placeholder path, when one was requested.
	Backend string
	// Touched lists supporting files created or modified besides the items' own.
	Touched []string
	// Recorded is set when the config gained a new entry.
	Recorded bool
	Warnings []string
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Counts tallies file statuses across every item.
func (r *Report) Counts() map[filemanager.Status]int {
	counts := make(map[filemanager.Status]int)
	for _, item := range r.Items {
		for _, f := range item.Files {
			counts[f.Status]++
		}
	}
	return counts
}

// FailedItems lists the items with no written files.
func (r *Report) FailedItems() []string {
	var out []string
	for _, item := range r.Items {
		if item.Failed() {
			out = append(out, item.Name)
		}
	}
	return out
}

// Bytes is the total size of every written file.
func (r *Report) Bytes() int64 {
	var total int64
	for _, item := range r.Items {
		for _, f := range item.Files {
			if f.Err == nil {
				total += int64(f.Size)
			}
		}
	}
	return total
}

// Summary is a one-line description of the add, e.g.
// "form: 4 components, 7 files (3 created, 0 updated, 4 unchanged), 12 kB".
func (r *Report) Summary() string {
	counts := r.Counts()
	written := counts[filemanager.StatusCreated] + counts[filemanager.StatusUpdated] + counts[filemanager.StatusUnchanged]
	s := fmt.Sprintf("%s: %d components, %d files (%d created, %d updated, %d unchanged",
		r.Requested, len(r.Items), written,
		counts[filemanager.StatusCreated], counts[filemanager.StatusUpdated], counts[filemanager.StatusUnchanged])
	if n := counts[filemanager.StatusFailed]; n > 0 {
		s += fmt.Sprintf(", %d failed", n)
	}
	return s + "), " + humanize.Bytes(uint64(r.Bytes()))
}
