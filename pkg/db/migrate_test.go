package db

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/savezy/savezy/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := OpenDBConnection(context.Background(), ":memory:", false, "NORMAL")
	require.NoError(t, err, "OpenDBConnection failed for in-memory DB")
	t.Cleanup(func() { conn.Close() })
	return conn
}

// tableExists reports whether tableName is present in sqlite_master.
func tableExists(t *testing.T, conn *sql.DB, tableName string) bool {
	t.Helper()
	var name string
	err := conn.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?;`, tableName).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	require.NoError(t, err)
	return name == tableName
}

func TestUpgradeDB_NewDatabase(t *testing.T) {
	ctx := context.Background()
	conn := openMemoryDB(t)

	version, err := GetSchemaVersion(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, int64(0), version)

	require.NoError(t, UpgradeDB(ctx, conn, ":memory:", TargetSchemaVersion, logging.Nop()))

	assert.True(t, tableExists(t, conn, "contents"), "contents table should exist")

	version, err = GetSchemaVersion(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, TargetSchemaVersion, version)
}

func TestUpgradeDB_SecondCallRunsNoDDL(t *testing.T) {
	ctx := context.Background()
	conn := openMemoryDB(t)

	require.NoError(t, UpgradeDB(ctx, conn, ":memory:", TargetSchemaVersion, logging.Nop()))

	// Drop the table behind the marker's back: a second upgrade at the target
	// version must not recreate it.
	_, err := conn.Exec(`DROP TABLE contents;`)
	require.NoError(t, err)

	require.NoError(t, UpgradeDB(ctx, conn, ":memory:", TargetSchemaVersion, logging.Nop()))
	assert.False(t, tableExists(t, conn, "contents"), "upgrade at target version should not run DDL")
}

func TestUpgradeDB_Idempotent(t *testing.T) {
	ctx := context.Background()
	conn := openMemoryDB(t)

	require.NoError(t, UpgradeDB(ctx, conn, ":memory:", TargetSchemaVersion, logging.Nop()))
	require.NoError(t, UpgradeDB(ctx, conn, ":memory:", TargetSchemaVersion, logging.Nop()))

	version, err := GetSchemaVersion(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, TargetSchemaVersion, version)
}

func TestUpgradeDB_NewerVersionUnsupported(t *testing.T) {
	ctx := context.Background()
	conn := openMemoryDB(t)

	_, err := conn.Exec(`PRAGMA user_version = 2;`)
	require.NoError(t, err)

	err = UpgradeDB(ctx, conn, ":memory:", TargetSchemaVersion, logging.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInitialization)
	assert.Contains(t, err.Error(), "newer than application's target schema version 1")

	version, err := GetSchemaVersion(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), version, "a failed upgrade must not touch the version marker")
}

func TestUpgradeDB_UnknownTargetVersion(t *testing.T) {
	conn := openMemoryDB(t)

	err := UpgradeDB(context.Background(), conn, ":memory:", TargetSchemaVersion+5, logging.Nop())
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestOpen_FileDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "savezy.db")

	conn, err := Open(ctx, path, true, "FULL", logging.Nop())
	require.NoError(t, err)
	assert.True(t, tableExists(t, conn, "contents"))
	require.NoError(t, Checkpoint(ctx, conn))
	require.NoError(t, conn.Close())

	// Reopening an initialized file keeps the marker and runs no migration.
	conn, err = Open(ctx, path, true, "FULL", logging.Nop())
	require.NoError(t, err)
	defer conn.Close()

	version, err := GetSchemaVersion(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, TargetSchemaVersion, version)
}

func TestOpen_UnwritableLocation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "dir", "savezy.db")

	_, err := Open(context.Background(), path, false, "", logging.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInitialization)
}

func TestOpenDBConnection_InvalidSyncMode(t *testing.T) {
	_, err := OpenDBConnection(context.Background(), ":memory:", false, "sometimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid sync pragma value")
}
