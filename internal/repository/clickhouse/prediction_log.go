package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"smartkitchen/internal/domain/prediction"
	chbatch "smartkitchen/pkg/clickhouse"
	"smartkitchen/pkg/errors"
)

const predictionLogSchema = `
	CREATE TABLE IF NOT EXISTS prediction_log (
		id         UUID,
		timestamp  DateTime64(3, 'UTC'),
		service    LowCardinality(String),
		model      LowCardinality(String),
		status     LowCardinality(String),
		alignment  LowCardinality(String),
		latency_ms Float64,
		input      String,
		output     String,
		error      String
	) ENGINE = MergeTree
	PARTITION BY toYYYYMM(timestamp)
	ORDER BY (service, timestamp)
	TTL toDateTime(timestamp) + INTERVAL 180 DAY
`

// PredictionLogRepository implements prediction.Repository for ClickHouse.
// Writes are buffered and inserted in batches.
type PredictionLogRepository struct {
	conn   driver.Conn
	writer *chbatch.BatchWriter[prediction.Log]
}

// NewPredictionLogRepository creates the repository; call Start to enable age-based flushing
func NewPredictionLogRepository(conn driver.Conn) *PredictionLogRepository {
	r := &PredictionLogRepository{conn: conn}
	r.writer = chbatch.NewBatchWriter(chbatch.BatchWriterConfig[prediction.Log]{
		Flush:        r.insert,
		Table:        "prediction_log",
		MaxBatchSize: 200,
		MaxAge:       5 * time.Second,
	})
	return r
}

var _ prediction.Repository = (*PredictionLogRepository)(nil)

// EnsureSchema creates the table when missing
func (r *PredictionLogRepository) EnsureSchema(ctx context.Context) error {
	if err := r.conn.Exec(ctx, predictionLogSchema); err != nil {
		return errors.Wrap(err, "failed to create prediction_log table")
	}
	return nil
}

// Start runs the background flush loop
func (r *PredictionLogRepository) Start(ctx context.Context) {
	r.writer.Start(ctx)
}

// Stop flushes buffered rows
func (r *PredictionLogRepository) Stop(ctx context.Context) error {
	return r.writer.Stop(ctx)
}

// Record buffers one log entry
func (r *PredictionLogRepository) Record(ctx context.Context, log *prediction.Log) error {
	if log == nil {
		return nil
	}
	return r.writer.Add(ctx, *log)
}

func (r *PredictionLogRepository) insert(ctx context.Context, batch []prediction.Log) error {
	b, err := r.conn.PrepareBatch(ctx, `
		INSERT INTO prediction_log (
			id, timestamp, service, model, status, alignment,
			latency_ms, input, output, error
		)
	`)
	if err != nil {
		return errors.Wrap(err, "failed to prepare prediction_log batch")
	}

	for _, l := range batch {
		if err := b.Append(
			l.ID,
			l.Timestamp,
			l.Service,
			l.Model,
			l.Status,
			l.Alignment,
			float64(l.Latency)/float64(time.Millisecond),
			l.Input,
			l.Output,
			l.Error,
		); err != nil {
			_ = b.Abort()
			return errors.Wrap(err, "failed to append prediction_log row")
		}
	}

	if err := b.Send(); err != nil {
		return errors.Wrap(err, "failed to send prediction_log batch")
	}
	return nil
}

// Recent returns the latest entries of a service, newest first
func (r *PredictionLogRepository) Recent(ctx context.Context, service string, limit int) ([]prediction.Log, error) {
	query := `
		SELECT
			id, timestamp, service, model, status, alignment,
			latency_ms, input, output, error
		FROM prediction_log
		WHERE service = ?
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := r.conn.Query(ctx, query, service, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query prediction_log")
	}
	defer rows.Close()

	var logs []prediction.Log
	for rows.Next() {
		var (
			l         prediction.Log
			latencyMs float64
		)
		if err := rows.Scan(
			&l.ID,
			&l.Timestamp,
			&l.Service,
			&l.Model,
			&l.Status,
			&l.Alignment,
			&latencyMs,
			&l.Input,
			&l.Output,
			&l.Error,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan prediction_log row")
		}
		l.Latency = time.Duration(latencyMs * float64(time.Millisecond))
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
