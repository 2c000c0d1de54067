package decision

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"

	"github.com/Veraticus/carbon-audit/internal/advisory"
	"github.com/Veraticus/carbon-audit/internal/common"
	"github.com/Veraticus/carbon-audit/internal/model"
)

type fakeClient struct {
	analyze func(ctx context.Context, req advisory.Request) (advisory.Analysis, error)
	calls   atomic.Int32
}

func (f *fakeClient) Analyze(ctx context.Context, req advisory.Request) (advisory.Analysis, error) {
	f.calls.Add(1)
	return f.analyze(ctx, req)
}

func TestRefiner_Success(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{analyze: func(_ context.Context, req advisory.Request) (advisory.Analysis, error) {
		assert.Equal(t, "Solar farm", req.Description)
		return advisory.Analysis{PredictedESGScore: 72, CredibilityScore: 88, CarbonRisk: "low"}, nil
	}}
	local := Local(5, 0.4)

	pending := NewRefiner(client, time.Second).Refine(context.Background(), advisory.Request{Description: "Solar farm"}, local)
	got := pending.Wait(context.Background())

	assert.True(t, pending.Refined())
	assert.Equal(t, model.DecisionApprove, got.Decision)
	assert.Equal(t, model.SourceRemote, got.Source)
	assert.InDelta(t, 0.88, got.Confidence, 1e-9)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestRefiner_FailureKeepsLocal(t *testing.T) {
	defer goleak.VerifyNone(t)

	tests := []struct {
		err  error
		name string
	}{
		{name: "unavailable", err: common.ErrAdvisoryUnavailable},
		{name: "bad body", err: common.ErrAdvisoryResponse},
		{name: "anything else", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{analyze: func(context.Context, advisory.Request) (advisory.Analysis, error) {
				return advisory.Analysis{}, tt.err
			}}
			local := Local(8, 0.9)

			got := NewRefiner(client, time.Second).Decide(context.Background(), advisory.Request{}, local)
			assert.Equal(t, local, got)
		})
	}
}

func TestRefiner_Timeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	client := &fakeClient{analyze: func(ctx context.Context, _ advisory.Request) (advisory.Analysis, error) {
		<-ctx.Done()
		return advisory.Analysis{}, ctx.Err()
	}}
	local := Local(7, 0.7)

	start := time.Now()
	pending := NewRefiner(client, 30*time.Millisecond).Refine(context.Background(), advisory.Request{}, local)

	select {
	case <-pending.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("refinement did not honour its timeout")
	}
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, pending.Refined())
	assert.Equal(t, local, pending.Wait(context.Background()))
}

func TestPending_WaitContextEndsFirst(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	client := &fakeClient{analyze: func(context.Context, advisory.Request) (advisory.Analysis, error) {
		<-release
		return advisory.Analysis{PredictedESGScore: 99, CredibilityScore: 99}, nil
	}}
	local := Local(1, 0)

	pending := NewRefiner(client, time.Minute).Refine(context.Background(), advisory.Request{}, local)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, local, pending.Wait(ctx))

	close(release)
	<-pending.Done()
	assert.True(t, pending.Refined())
}

func TestRefiner_NilClient(t *testing.T) {
	local := Local(7, 1)

	pending := NewRefiner(nil, 0).Refine(context.Background(), advisory.Request{}, local)
	select {
	case <-pending.Done():
	default:
		t.Fatal("nil client should complete immediately")
	}
	assert.False(t, pending.Refined())
	assert.Equal(t, local, pending.Wait(context.Background()))

	var r *Refiner
	assert.Equal(t, local, r.Decide(context.Background(), advisory.Request{}, local))
}
