package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"testing"

	"gdp-etl/internal/config"
	"gdp-etl/internal/gdp"
	"gdp-etl/internal/telemetry"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupPostgres(t *testing.T) config.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container is not started in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	// suppress logging
	testcontainers.Logger = log.New(io.Discard, "", 0)

	ctx := context.Background()
	postgres, err := testcontainers.GenericContainer(
		ctx,
		testcontainers.GenericContainerRequest{
			Started: true,
			ContainerRequest: testcontainers.ContainerRequest{
				Image:        "postgres:16-alpine",
				ExposedPorts: []string{"5432/tcp"},
				Env: map[string]string{
					"POSTGRES_USER":     "gdp",
					"POSTGRES_PASSWORD": "gdp",
					"POSTGRES_DB":       "world_economies",
				},
				WaitingFor: wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2),
			},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		err := postgres.Terminate(context.Background())
		if err != nil {
			t.Fatal(err)
		}
	})

	host, err := postgres.Host(ctx)
	if err != nil {
		t.Fatal(err)
	}
	port, err := postgres.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatal(err)
	}

	return config.Database{
		Driver: "postgres",
		Url: fmt.Sprintf(
			"postgres://gdp:gdp@%s:%s/world_economies?sslmode=disable",
			host, port.Port(),
		),
		Table: config.DefaultTable,
	}
}

func TestPostgresStore(t *testing.T) {
	cfg := setupPostgres(t)
	ctx := context.Background()

	tel := &telemetry.Recorder{}
	store, err := Open(ctx, cfg, tel)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.ReplaceTable(ctx, cfg.Table, sampleRecords))

	result, err := store.RunQuery(ctx, FilterStatement(cfg.Table, 100))
	require.NoError(t, err)
	// unquoted identifiers are folded to lower case
	require.Equal(t, []string{"country", "gdp_usd_billions"}, result.Columns)
	records, err := result.Records()
	require.NoError(t, err)
	require.Equal(t, sampleRecords[:2], records)

	require.NoError(t, store.ReplaceTable(ctx, cfg.Table, sampleRecords[2:]))
	result, err = store.RunQuery(ctx, "SELECT * FROM "+cfg.Table)
	require.NoError(t, err)
	records, err = result.Records()
	require.NoError(t, err)
	require.Equal(t, sampleRecords[2:], records)

	// postgres rejects NUL in text, the failed load must leave the previous
	// table in place
	err = store.ReplaceTable(ctx, cfg.Table, []gdp.Record{
		{Country: "Valid", GDPBillions: 1},
		{Country: "Bad\x00Name", GDPBillions: 2},
	})
	require.ErrorIs(t, err, gdp.ErrStorage)
	require.Len(t, tel.Reports("broken"), 1)

	result, err = store.RunQuery(ctx, "SELECT * FROM "+cfg.Table)
	require.NoError(t, err)
	records, err = result.Records()
	require.NoError(t, err)
	require.Equal(t, sampleRecords[2:], records)
}
