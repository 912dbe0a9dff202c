package reconciler

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/bridgemeta/bridgemeta/pkg/errors"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// Result is the outcome of one merge run: the canonical record set plus
// every diagnostic collected along the way. Entities are isolated from
// each other, so a single run reports every unresolved field rather than
// stopping at the first.
type Result struct {
	Framework *metadata.Framework

	// Conflicts are fields whose values split in a way no axis and no
	// escape hatch could resolve.
	Conflicts []*errors.ConflictError

	// Mismatches are invariant fields that differed between scans:
	// scanner defects, not correctable through the overlay.
	Mismatches []*errors.ScanMismatchError

	// OverrideErrors are exception overrides referencing arguments the
	// scanner never observed.
	OverrideErrors []*errors.OverrideIndexError

	// Rejections are entities refused by kind-specific policy, such as
	// doubly-indirect C array arguments.
	Rejections []*errors.ValidationError
}

// OK reports whether the run produced a clean canonical record set.
func (res *Result) OK() bool {
	return len(res.Conflicts) == 0 &&
		len(res.Mismatches) == 0 &&
		len(res.OverrideErrors) == 0 &&
		len(res.Rejections) == 0
}

// Count returns the total number of diagnostics.
func (res *Result) Count() int {
	return len(res.Conflicts) + len(res.Mismatches) +
		len(res.OverrideErrors) + len(res.Rejections)
}

// Err returns nil for a clean run, and a summary error otherwise. The
// per-entity detail lives in the diagnostic slices and Report.
func (res *Result) Err() error {
	if res.OK() {
		return nil
	}
	return fmt.Errorf("merge finished with %d unresolved problems: "+
		"%d conflicts, %d scan mismatches, %d override errors, %d rejections",
		res.Count(), len(res.Conflicts), len(res.Mismatches),
		len(res.OverrideErrors), len(res.Rejections))
}

// Report writes every diagnostic, sorted by entity and field, with
// enough identifying detail to author a targeted exception.
func (res *Result) Report(w io.Writer) {
	lines := make([]string, 0, res.Count())
	for _, c := range res.Conflicts {
		lines = append(lines, "conflict: "+c.Error())
	}
	for _, m := range res.Mismatches {
		lines = append(lines, "mismatch: "+m.Error())
	}
	for _, o := range res.OverrideErrors {
		lines = append(lines, "override: "+o.Error())
	}
	for _, v := range res.Rejections {
		lines = append(lines, "rejected: "+v.Error())
	}
	sort.Strings(lines)
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
	if len(lines) > 0 {
		fmt.Fprintf(w, "%d problems\n", len(lines))
	}
}

// collect routes an entity's failure into the matching diagnostic
// bucket. Unknown error kinds are wrapped as rejections so nothing is
// ever swallowed.
func (res *Result) collect(section, name string, err error) {
	switch e := err.(type) {
	case *errors.ConflictError:
		res.Conflicts = append(res.Conflicts, e)
	case *errors.ScanMismatchError:
		res.Mismatches = append(res.Mismatches, e)
	case *errors.OverrideIndexError:
		res.OverrideErrors = append(res.OverrideErrors, e)
	case *errors.ValidationError:
		res.Rejections = append(res.Rejections, e)
	default:
		res.Rejections = append(res.Rejections, errors.NewValidationError(
			entityRef(section, name), "", err.Error()))
	}
}

// entityRef renders a section-qualified entity name for diagnostics.
func entityRef(section, name string) string {
	if strings.Contains(name, ".") || section == "" {
		return name
	}
	return section + "." + name
}
