package clickhouse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu      sync.Mutex
	batches [][]int
}

func (r *recorder) flush(_ context.Context, batch []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, batch)
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

func TestBatchWriter_FlushOnMaxSize(t *testing.T) {
	rec := &recorder{}
	bw := NewBatchWriter(BatchWriterConfig[int]{
		Flush:        rec.flush,
		Table:        "prediction_log",
		MaxBatchSize: 3,
		MaxAge:       10 * time.Second,
	})

	ctx := context.Background()
	require.NoError(t, bw.Add(ctx, 1))
	require.NoError(t, bw.Add(ctx, 2))
	assert.Equal(t, 0, rec.count())

	require.NoError(t, bw.Add(ctx, 3))
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []int{1, 2, 3}, rec.batches[0])
	assert.Equal(t, 0, bw.BufferSize())
}

func TestBatchWriter_FlushOnTimer(t *testing.T) {
	rec := &recorder{}
	bw := NewBatchWriter(BatchWriterConfig[int]{
		Flush:        rec.flush,
		Table:        "prediction_log",
		MaxBatchSize: 100,
		MaxAge:       50 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bw.Start(ctx)

	require.NoError(t, bw.Add(ctx, 1))
	require.NoError(t, bw.Add(ctx, 2))

	assert.Eventually(t, func() bool { return rec.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, bw.Stop(context.Background()))
}

func TestBatchWriter_StopFlushesRemainder(t *testing.T) {
	rec := &recorder{}
	bw := NewBatchWriter(BatchWriterConfig[int]{
		Flush:        rec.flush,
		MaxBatchSize: 100,
		MaxAge:       time.Hour,
	})

	bw.Start(context.Background())
	require.NoError(t, bw.Add(context.Background(), 7))
	require.NoError(t, bw.Stop(context.Background()))

	require.Equal(t, 1, rec.count())
	assert.Equal(t, []int{7}, rec.batches[0])
}

func TestBatchWriter_FlushError(t *testing.T) {
	boom := errors.New("insert failed")
	bw := NewBatchWriter(BatchWriterConfig[int]{
		Flush:        func(context.Context, []int) error { return boom },
		MaxBatchSize: 1,
	})

	err := bw.Add(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, bw.BufferSize())
}
