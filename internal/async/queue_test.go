package async

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/ipqc-tracker/internal/common"
	"github.com/joseph-ayodele/ipqc-tracker/internal/ingest"
)

func job(id string) Job {
	return Job{Source: ingest.Source{ChecklistID: id, Kind: ingest.KindPDF}}
}

func TestWorkerQueue_RunsEveryJob(t *testing.T) {
	var (
		mu       sync.Mutex
		outcomes = map[string]error{}
	)
	handler := func(_ context.Context, j Job) error {
		if j.Source.ChecklistID == "CL-0003" {
			return errors.New("unreadable")
		}
		return nil
	}
	q := NewWorkerQueue(handler, nil, WithWorkers(3), WithQueueSize(2), WithOutcome(func(o Outcome) {
		mu.Lock()
		defer mu.Unlock()
		outcomes[o.Job.Source.ChecklistID] = o.Err
	}))

	ctx := context.Background()
	for i := 1; i <= 10; i++ {
		require.NoError(t, q.Enqueue(ctx, job(fmt.Sprintf("CL-%04d", i))))
	}
	require.NoError(t, q.Shutdown(ctx))

	assert.Len(t, outcomes, 10)
	assert.EqualError(t, outcomes["CL-0003"], "unreadable")
	assert.NoError(t, outcomes["CL-0001"])
}

func TestWorkerQueue_FillsJobDefaults(t *testing.T) {
	var (
		got       Job
		requestID string
	)
	q := NewWorkerQueue(func(ctx context.Context, j Job) error {
		got = j
		requestID = common.RequestIDFromContext(ctx)
		return nil
	}, nil, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), job("CL-0001")))
	require.NoError(t, q.Shutdown(context.Background()))

	assert.NotEmpty(t, got.TraceID)
	assert.Equal(t, got.TraceID, requestID)
	assert.False(t, got.SubmittedAt.IsZero())
}

func TestWorkerQueue_RecoversPanics(t *testing.T) {
	var failed atomic.Int32
	q := NewWorkerQueue(func(context.Context, Job) error { panic("boom") }, nil,
		WithWorkers(1),
		WithOutcome(func(o Outcome) {
			if o.Err != nil {
				failed.Add(1)
			}
		}))
	require.NoError(t, q.Enqueue(context.Background(), job("CL-0001")))
	require.NoError(t, q.Enqueue(context.Background(), job("CL-0002")))
	require.NoError(t, q.Shutdown(context.Background()))
	assert.Equal(t, int32(2), failed.Load())
}

func TestWorkerQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewWorkerQueue(func(context.Context, Job) error { return nil }, nil)
	require.NoError(t, q.Shutdown(context.Background()))
	assert.ErrorIs(t, q.Enqueue(context.Background(), job("CL-0001")), ErrClosed)
	assert.NoError(t, q.Shutdown(context.Background()), "shutdown is idempotent")
}

func TestWorkerQueue_JobTimeout(t *testing.T) {
	var got error
	q := NewWorkerQueue(func(ctx context.Context, _ Job) error {
		<-ctx.Done()
		return ctx.Err()
	}, nil, WithWorkers(1), WithProcessTimeout(20*time.Millisecond), WithOutcome(func(o Outcome) { got = o.Err }))

	require.NoError(t, q.Enqueue(context.Background(), job("CL-0001")))
	require.NoError(t, q.Shutdown(context.Background()))
	assert.ErrorIs(t, got, context.DeadlineExceeded)
}

func TestWorkerQueue_ShutdownHonoursContext(t *testing.T) {
	release := make(chan struct{})
	q := NewWorkerQueue(func(context.Context, Job) error { <-release; return nil }, nil, WithWorkers(1))
	require.NoError(t, q.Enqueue(context.Background(), job("CL-0001")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Shutdown(ctx), context.DeadlineExceeded)
	close(release)
}
