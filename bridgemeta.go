// Package bridgemeta merges per-architecture, per-SDK framework header
// scans into one canonical metadata record set. Scanned values that
// differ between variants are either collapsed, deferred along a known
// hardware axis (pointer width or byte order), or reported as conflicts
// for a hand-authored exception to resolve.
package bridgemeta

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bridgemeta/bridgemeta/pkg/logging"
	"github.com/bridgemeta/bridgemeta/pkg/metadata"
	"github.com/bridgemeta/bridgemeta/pkg/reconciler"
)

// Bridgemeta merges scans for one framework.
type Bridgemeta interface {
	// Merge merges in-memory scans with the configured exception set.
	// The returned Result is non-nil whenever the inputs were usable,
	// even if diagnostics were collected.
	Merge(framework string, scans []*metadata.Scan) (*reconciler.Result, error)

	// MergeFiles loads each scan from disk and merges them.
	MergeFiles(framework string, scanPaths ...string) (*reconciler.Result, error)
}

// bridgemeta is the internal implementation of the Bridgemeta interface.
type bridgemeta struct {
	config *config
}

// New creates a new Bridgemeta instance with the given options.
func New(opts ...Option) (Bridgemeta, error) {
	bm := &bridgemeta{
		config: &config{logger: logging.Default()},
	}

	for _, opt := range opts {
		if err := opt(bm.config); err != nil {
			return nil, fmt.Errorf("applying options: %w", err)
		}
	}

	if bm.config.exceptionsPath != "" {
		exc, err := metadata.LoadExceptions(bm.config.exceptionsPath)
		if err != nil {
			return nil, fmt.Errorf("loading exceptions: %w", err)
		}
		bm.config.exceptions = exc
	}

	return bm, nil
}

// Merge merges in-memory scans with the configured exception set.
func (bm *bridgemeta) Merge(framework string, scans []*metadata.Scan) (*reconciler.Result, error) {
	rec := reconciler.New(reconciler.WithLogger(bm.config.logger))

	result, err := rec.Reconcile(framework, scans, bm.config.exceptions)
	if result == nil {
		return nil, err
	}

	if bm.config.outputPath != "" && result.OK() {
		if saveErr := metadata.SaveFramework(bm.config.outputPath, bm.config.header, result.Framework); saveErr != nil {
			return result, saveErr
		}
	}
	return result, err
}

// MergeFiles loads each scan from disk and merges them.
func (bm *bridgemeta) MergeFiles(framework string, scanPaths ...string) (*reconciler.Result, error) {
	scans := make([]*metadata.Scan, 0, len(scanPaths))
	for _, path := range scanPaths {
		scan, err := metadata.LoadScan(path)
		if err != nil {
			return nil, err
		}
		scans = append(scans, scan)
	}
	return bm.Merge(framework, scans)
}

// config holds the merge settings assembled by options.
type config struct {
	exceptionsPath string
	exceptions     *metadata.ExceptionSet
	outputPath     string
	header         string
	logger         *zerolog.Logger
}
