// Package reconciler merges independently produced per-variant framework
// scans into one canonical record set, then layers hand-authored
// exception corrections on top.
//
// Divergence between variants is classified as noise (all variants
// agree), a known hardware axis (pointer width or byte order, encoded as
// a deferred runtime selection), or a genuine conflict that is collected
// and reported for human adjudication. The merge is a synchronous batch
// transform over in-memory inputs and is deterministic: identical inputs
// produce byte-identical output.
package reconciler

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/bridgemeta/bridgemeta/pkg/axis"
	"github.com/bridgemeta/bridgemeta/pkg/logging"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
)

// Reconciler merges variant scans with an exception set.
type Reconciler struct {
	logger *zerolog.Logger
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithLogger sets the logger used for progress and diagnostics.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a Reconciler.
func New(opts ...Option) *Reconciler {
	r := &Reconciler{logger: logging.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile merges the given scans and exceptions into a canonical
// record set for the named framework. The exception set is read-only for
// the duration of the call and may be nil.
//
// A non-nil Result is returned even when diagnostics were collected;
// Result.Err reports whether the run was clean. A non-nil error with a
// nil Result means the inputs themselves were unusable.
func (rec *Reconciler) Reconcile(name string, scans []*metadata.Scan, exc *metadata.ExceptionSet) (*Result, error) {
	for _, s := range scans {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	if exc == nil {
		exc = metadata.Empty()
	}

	variants := make([]metadata.Variant, len(scans))
	present := make(axis.Set)
	for i, s := range scans {
		variants[i] = s.Variant
		present.Add(s.Arch)
	}

	fw := metadata.NewFramework(name, variants)
	r := &run{
		scans:   scans,
		exc:     exc,
		present: present,
		out:     &fw.Definitions,
		result:  &Result{Framework: fw},
		logger:  rec.logger,
	}

	rec.logger.Info().
		Str("framework", name).
		Int("variants", len(scans)).
		Str("archs", present.String()).
		Msg("Merging variant scans")

	r.mergeAliases()
	r.mergeEnumTypes()
	r.mergeEnums()
	r.mergeExterns()
	r.mergeCFTypes()
	r.mergeLiterals()
	r.mergeStructs()
	r.mergeExpressions()
	r.mergeFuncMacros()
	r.mergeFunctions()
	r.mergeClasses()
	r.mergeProtocols()

	if err := r.result.Err(); err != nil {
		rec.logger.Error().
			Str("framework", name).
			Int("problems", r.result.Count()).
			Msg("Merge finished with unresolved problems")
		return r.result, err
	}

	rec.logger.Info().
		Str("framework", name).
		Msg("Merge complete")
	return r.result, nil
}

// run carries the state of one merge pass.
type run struct {
	scans   []*metadata.Scan
	exc     *metadata.ExceptionSet
	present axis.Set
	out     *metadata.Definitions
	result  *Result
	logger  *zerolog.Logger
}

// fail records an entity's failure and logs it for debugging; the run
// continues with the next entity.
func (r *run) fail(section, name string, err error) {
	r.logger.Debug().
		Str("section", section).
		Str("entity", name).
		Err(err).
		Msg("Entity failed to merge")
	r.result.collect(section, name, err)
}

// entityObs is one variant's record for a named entity.
type entityObs[T any] struct {
	variant metadata.Variant
	rec     T
}

// collectSection gathers each entity's per-variant records for one
// section, preserving variant input order within each entity.
func collectSection[T any](scans []*metadata.Scan, pick func(*metadata.Definitions) map[string]T) map[string][]entityObs[T] {
	out := make(map[string][]entityObs[T])
	for _, s := range scans {
		for name, rec := range pick(&s.Definitions) {
			out[name] = append(out[name], entityObs[T]{variant: s.Variant, rec: rec})
		}
	}
	return out
}

// unionNames returns the sorted union of scanned and exception-only
// entity names. Sorted iteration keeps diagnostics and output
// deterministic.
func unionNames[T, E any](scanned map[string][]entityObs[T], exceptions map[string]E) []string {
	seen := make(map[string]struct{}, len(scanned)+len(exceptions))
	for name := range scanned {
		seen[name] = struct{}{}
	}
	for name := range exceptions {
		seen[name] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
