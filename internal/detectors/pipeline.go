// Package detectors runs issue detectors over an extracted document.
package detectors

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/custodia-labs/docaudit/internal/core/domain"
	"github.com/custodia-labs/docaudit/internal/core/ports/driven"
	"github.com/custodia-labs/docaudit/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driven.DetectorPipeline = (*Pipeline)(nil)

// Pipeline runs detectors concurrently over one document.
// Detectors only read the document. Their output is merged in the order
// they were added, each detector's own emission order preserved.
type Pipeline struct {
	detectors []driven.Detector
}

// NewPipeline creates a pipeline with the given detectors.
func NewPipeline(detectors ...driven.Detector) *Pipeline {
	return &Pipeline{
		detectors: detectors,
	}
}

type outcome struct {
	issues []domain.Issue
	err    error
}

// Detect runs every detector and merges the results.
//
// A detector that fails or panics contributes no issues and is reported
// in DetectionResult.Warnings. A pipeline-fatal error (see
// domain.IsPipelineFatal) cancels the remaining detectors and is returned.
func (p *Pipeline) Detect(ctx context.Context, doc *domain.Document) (*driven.DetectionResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	outcomes := make([]outcome, len(p.detectors))
	var wg sync.WaitGroup
	for i, det := range p.detectors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = run(ctx, det, doc)
			if domain.IsPipelineFatal(outcomes[i].err) {
				cancel()
			}
		}()
	}
	wg.Wait()

	// Report the root cause rather than a cancellation it triggered.
	if err := firstFatal(outcomes); err != nil {
		return nil, err
	}

	result := &driven.DetectionResult{}
	for i, out := range outcomes {
		if out.err != nil {
			warning := &domain.DetectorError{Detector: p.detectors[i].Name(), Err: out.err}
			logger.Warn("%v", warning)
			result.Warnings = append(result.Warnings, warning)
			continue
		}
		result.Issues = append(result.Issues, out.issues...)
	}
	return result, nil
}

func firstFatal(outcomes []outcome) error {
	var canceled error
	for _, out := range outcomes {
		if !domain.IsPipelineFatal(out.err) {
			continue
		}
		if errors.Is(out.err, context.Canceled) {
			if canceled == nil {
				canceled = out.err
			}
			continue
		}
		return out.err
	}
	return canceled
}

// run invokes one detector, converting a panic into an error.
func run(ctx context.Context, det driven.Detector, doc *domain.Document) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	done := logger.Timed("detector " + det.Name())
	defer done()

	issues, err := det.Detect(ctx, doc)
	if err != nil {
		return outcome{err: err}
	}
	logger.Debug("detector %s found %d issues", det.Name(), len(issues))
	return outcome{issues: issues}
}

// Add appends a detector to the pipeline.
func (p *Pipeline) Add(det driven.Detector) {
	p.detectors = append(p.detectors, det)
}

// Len returns the number of detectors in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.detectors)
}

// Names returns detector names in registration order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.detectors))
	for i, det := range p.detectors {
		names[i] = det.Name()
	}
	return names
}
