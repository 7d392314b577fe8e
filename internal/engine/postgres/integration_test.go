package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"

	"github.com/JonMunkholm/sqlcourse/internal/core"
	"github.com/JonMunkholm/sqlcourse/internal/engine/postgres"
	"github.com/JonMunkholm/sqlcourse/internal/launcher"
)

func TestImportAndQuery_Postgres(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	docker := launcher.NewDocker(launcher.DefaultImage, nil)
	t.Cleanup(func() { _ = docker.Close(context.Background()) })

	backend := postgres.New(postgres.Config{
		PortBase:  17000,
		PortSlots: 1000,
		Database:  "course",
		User:      "student",
		Password:  "integration",
	}, docker)

	svc, err := core.NewService(backend, core.NewRegistry(), core.Options{
		Waiter: core.Waiter{
			FirstDelay:     time.Second,
			Interval:       time.Second,
			MaxAttempts:    60,
			AttemptTimeout: 5 * time.Second,
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	summary, err := svc.Import(ctx, core.ImportRequest{
		Name: "people.csv",
		CSV:  []byte("id,age,score,big\n1,30,9.5,3000000000\n2,,8,\n"),
	})
	require.NoError(t, err)

	ds, err := svc.Get(summary.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ds.RowCount)
	assert.Equal(t, core.TypeBigint, ds.Columns[3].Type)
	assert.Equal(t, 1, docker.Running())

	result, err := svc.Execute(ctx, summary.ID, "SELECT COUNT(*) AS n FROM data")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Rows[0]["n"])

	result, err = svc.Execute(ctx, summary.ID, "SELECT age, score, big FROM data ORDER BY id")
	require.NoError(t, err)
	assert.Nil(t, result.Rows[1]["age"])
	assert.EqualValues(t, 8, result.Rows[1]["score"]) // REAL decodes as float32
	assert.Equal(t, int64(3000000000), result.Rows[0]["big"])

	result, err = svc.Execute(ctx, summary.ID, "UPDATE data SET age = 1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.RowsAffected)

	_, err = svc.Execute(ctx, summary.ID, "SELECT nope FROM data")
	require.ErrorIs(t, err, core.ErrQuery)
	assert.Contains(t, err.Error(), "nope")
}
