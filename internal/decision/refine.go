package decision

import (
	"context"
	"log/slog"
	"time"

	"github.com/Veraticus/carbon-audit/internal/advisory"
)

// Refiner upgrades a local decision with the remote advisory service.
type Refiner struct {
	client  advisory.Client
	timeout time.Duration
}

// NewRefiner creates a refiner. A nil client disables refinement and a
// non-positive timeout falls back to advisory.DefaultTimeout.
func NewRefiner(client advisory.Client, timeout time.Duration) *Refiner {
	if timeout <= 0 {
		timeout = advisory.DefaultTimeout
	}
	return &Refiner{client: client, timeout: timeout}
}

// Pending is the eventual outcome of an asynchronous refinement.
type Pending struct {
	done    chan struct{}
	local   Result
	result  Result
	refined bool
}

// Done is closed once the refinement has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the refinement finishes or ctx is done. When ctx ends
// first the local result is returned.
func (p *Pending) Wait(ctx context.Context) Result {
	select {
	case <-p.done:
		return p.result
	case <-ctx.Done():
		return p.local
	}
}

// Refined reports whether the remote service replaced the local result.
// Only meaningful after Done is closed.
func (p *Pending) Refined() bool {
	<-p.done
	return p.refined
}

// Refine starts a remote analysis in the background and returns immediately.
// Any failure (timeout, transport, unparsable body) leaves local unchanged.
func (r *Refiner) Refine(ctx context.Context, req advisory.Request, local Result) *Pending {
	p := &Pending{done: make(chan struct{}), local: local, result: local}
	if r == nil || r.client == nil {
		close(p.done)
		return p
	}

	go func() {
		defer close(p.done)

		callCtx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		analysis, err := r.client.Analyze(callCtx, req)
		if err != nil {
			slog.Warn("advisory refinement failed, keeping local decision",
				"error", err,
				"decision", local.Decision)
			return
		}

		p.result = FromAnalysis(analysis)
		p.refined = true
		slog.Debug("advisory refinement applied",
			"decision", p.result.Decision,
			"confidence", p.result.Confidence,
			"predicted_esg", analysis.PredictedESGScore)
	}()

	return p
}

// Decide runs a refinement and waits for it.
func (r *Refiner) Decide(ctx context.Context, req advisory.Request, local Result) Result {
	return r.Refine(ctx, req, local).Wait(ctx)
}
