package reconciler

import (
	"strings"

	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// policy is a section's escape hatch for value splits that match no
// hardware axis.
type policy struct {
	// maxOfSuffixes lists entity-name suffixes whose conflicting numeric
	// values collapse to the maximum. Enumerator count sentinels grow
	// with each SDK release; the largest value is the usable one.
	maxOfSuffixes []string
}

// sectionPolicies maps section names to their escape hatches. Sections
// without an entry have none.
var sectionPolicies = map[string]*policy{
	sectionEnum: {maxOfSuffixes: []string{"Count"}},
}

func policyFor(section string) *policy {
	return sectionPolicies[section]
}

// escapeHatch tries to collapse conflicting classes for entity. It is
// nil-safe so callers can pass the section policy through unchecked.
func (p *policy) escapeHatch(entity string, classes []*class) (metadata.Value, bool) {
	if p == nil {
		return metadata.Value{}, false
	}
	for _, suffix := range p.maxOfSuffixes {
		if strings.HasSuffix(entity, suffix) {
			return maxNumeric(classes)
		}
	}
	return metadata.Value{}, false
}

// maxNumeric returns the largest value across classes. It applies only
// when every class holds an integer; a non-numeric class means the
// conflict stands.
func maxNumeric(classes []*class) (metadata.Value, bool) {
	var max int64
	for i, c := range classes {
		n, ok := asInt64(c.value.Raw)
		if !ok {
			return metadata.Value{}, false
		}
		if i == 0 || n > max {
			max = n
		}
	}
	return metadata.Int(max), true
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n > 1<<62 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}
