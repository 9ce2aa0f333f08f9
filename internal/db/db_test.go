package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenInMemory(t *testing.T) {
	db, err := sql.Open("sqlite", "file::memory:?cache=shared&mode=rwc&_journal_mode=WAL&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	err = db.Ping()
	assert.NoError(t, err)
}

func TestMigrationsApply(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	// Verify tables exist
	var tableName string
	for _, table := range []string{
		"antennas",
		"garment_types",
		"volunteers",
		"stock_items",
		"loans",
		"inventory_sessions",
		"inventory_counts",
		"stock_movements",
	} {
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&tableName)
		assert.NoError(t, err)
		assert.Equal(t, table, tableName)
	}
}

func TestQuantityNeverNegative(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	_, err = db.Exec(`INSERT INTO antennas (name) VALUES ('A')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO garment_types (label) VALUES ('Parka')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO stock_items (antenna_id, garment_type_id, quantity) VALUES (1, 1, -1)`)
	assert.Error(t, err)
}

func TestOneOpenSessionPerAntenna(t *testing.T) {
	db, err := OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, db.Close()) })

	_, err = db.Exec(`INSERT INTO antennas (name) VALUES ('A')`)
	require.NoError(t, err)

	_, err = db.Exec(`INSERT INTO inventory_sessions (antenna_id) VALUES (1)`)
	require.NoError(t, err)
	// The partial unique index rejects a second open session.
	_, err = db.Exec(`INSERT INTO inventory_sessions (antenna_id) VALUES (1)`)
	assert.Error(t, err)

	_, err = db.Exec(`UPDATE inventory_sessions SET closed_at = datetime('now')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO inventory_sessions (antenna_id) VALUES (1)`)
	assert.NoError(t, err)
}
