package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fenilmodi00/stock-api/config"
	"github.com/fenilmodi00/stock-api/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSQLStatements(t *testing.T) {
	statements := parseSQLStatements(`
-- comment
CREATE TABLE a (
    id INT
);

CREATE INDEX b ON a (id);
SELECT 1`)

	require.Len(t, statements, 3)
	assert.Equal(t, "CREATE TABLE a ( id INT )", statements[0])
	assert.Equal(t, "CREATE INDEX b ON a (id)", statements[1])
	assert.Equal(t, "SELECT 1", statements[2])
}

func TestEmbeddedSchemaParses(t *testing.T) {
	statements := parseSQLStatements(schemaSQL)
	require.Len(t, statements, 2)
	assert.Contains(t, statements[0], "CREATE TABLE IF NOT EXISTS refresh_events")
}

// setupEventStore connects to TEST_DATABASE_URL and skips when no database is reachable
func setupEventStore(t *testing.T) *RefreshEventStore {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("Skipping database tests - TEST_DATABASE_URL not set")
	}

	db, err := Connect(dbURL, config.DefaultDatabaseConfig())
	if err != nil {
		t.Skipf("Skipping database tests - database not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(context.Background(), db))
	return NewRefreshEventStore(db)
}

func TestRefreshEventStoreRoundTrip(t *testing.T) {
	store := setupEventStore(t)
	ctx := context.Background()

	// Unique collection name keeps reruns independent of older rows.
	collection := models.CollectionName("test-" + uuid.NewString())
	cycleID := uuid.New()

	failed := models.RefreshEvent{
		ID:           uuid.New(),
		CycleID:      cycleID,
		Collection:   collection,
		ErrorKind:    "upstream:HTTP_500",
		ErrorMessage: "upstream returned 500",
		Duration:     120 * time.Millisecond,
		Timestamp:    time.Now().Add(-time.Minute).UTC().Truncate(time.Millisecond),
	}
	succeeded := models.RefreshEvent{
		ID:         uuid.New(),
		CycleID:    cycleID,
		Collection: collection,
		Success:    true,
		Records:    42,
		Duration:   80 * time.Millisecond,
		Timestamp:  time.Now().UTC().Truncate(time.Millisecond),
	}

	require.NoError(t, store.RecordRefreshEvent(ctx, failed))
	require.NoError(t, store.RecordRefreshEvent(ctx, succeeded))
	require.NoError(t, store.RecordRefreshEvent(ctx, succeeded), "duplicate ids are ignored")

	events, err := store.RecentEvents(ctx, collection, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, succeeded.ID, events[0].ID)
	assert.True(t, events[0].Success)
	assert.Equal(t, 42, events[0].Records)
	assert.Equal(t, "", events[0].ErrorKind)

	assert.Equal(t, failed.ID, events[1].ID)
	assert.Equal(t, "upstream:HTTP_500", events[1].ErrorKind)
	assert.Equal(t, 120*time.Millisecond, events[1].Duration)

	assert.NoError(t, store.HealthCheck(ctx))
}
