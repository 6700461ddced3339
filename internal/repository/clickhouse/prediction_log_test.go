package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartkitchen/internal/domain/prediction"
	"smartkitchen/internal/testsupport"
)

func TestPredictionLogRepository_RecordAndRecent(t *testing.T) {
	helper := testsupport.NewClickHouseTestHelper(t)
	ctx := context.Background()

	repo := NewPredictionLogRepository(helper.Client().Conn())
	require.NoError(t, repo.EnsureSchema(ctx))

	service := "test_" + time.Now().Format("150405.000000")
	helper.RegisterTableCleanup(t, "prediction_log", "service = '"+service+"'")

	log := prediction.NewLog(service, "sales_model")
	log.Latency = 12 * time.Millisecond
	log.Input = `{"category":"Dairy"}`
	log.Output = `{"predicted_sales":4.2}`
	require.NoError(t, repo.Record(ctx, log))
	require.NoError(t, repo.Stop(ctx))

	logs, err := repo.Recent(ctx, service, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, log.ID, logs[0].ID)
	assert.Equal(t, "success", logs[0].Status)
	assert.InDelta(t, 12, logs[0].Latency.Seconds()*1000, 0.01)
}
