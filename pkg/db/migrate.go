package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/savezy/savezy/pkg/logging"
)

// TargetSchemaVersion is the schema version this build of savezy expects.
const TargetSchemaVersion int64 = 1

// ErrInitialization marks a failed schema creation or migration. Callers treat it as fatal.
var ErrInitialization = errors.New("database initialization failed")

// GetSchemaVersion reads the schema version marker (PRAGMA user_version).
// A fresh database reports 0.
func GetSchemaVersion(ctx context.Context, db *sql.DB) (int64, error) {
	var version int64
	if err := db.QueryRowContext(ctx, "PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// UpgradeDB brings the database to targetVersion, applying each pending migration
// and then writing the new version marker in the same transaction. At the target
// version it performs no DDL. dbIdentifierForLog is only used in log output.
func UpgradeDB(ctx context.Context, db *sql.DB, dbIdentifierForLog string, targetVersion int64, log logging.Logger) error {
	if targetVersion > int64(len(migrations)) {
		return fmt.Errorf("%w: no migration path to schema version %d", ErrInitialization, targetVersion)
	}

	currentVersion, err := GetSchemaVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInitialization, err)
	}

	switch {
	case currentVersion == targetVersion:
		log.Debug(ctx, "schema up to date", "db", dbIdentifierForLog, "version", currentVersion)
		return nil
	case currentVersion > targetVersion:
		return fmt.Errorf("%w: database '%s' has schema version %d, which is newer than application's target schema version %d. Please upgrade the application",
			ErrInitialization, dbIdentifierForLog, currentVersion, targetVersion)
	}

	log.Info(ctx, "upgrading schema", "db", dbIdentifierForLog, "from", currentVersion, "to", targetVersion)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin migration: %w", ErrInitialization, err)
	}
	defer tx.Rollback()

	for v := currentVersion; v < targetVersion; v++ {
		if _, err := tx.ExecContext(ctx, migrations[v]); err != nil {
			return fmt.Errorf("%w: migration to version %d: %w", ErrInitialization, v+1, err)
		}
	}

	// PRAGMA arguments cannot be bound as parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d;", targetVersion)); err != nil {
		return fmt.Errorf("%w: write schema version %d: %w", ErrInitialization, targetVersion, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit migration: %w", ErrInitialization, err)
	}

	log.Info(ctx, "schema upgraded", "db", dbIdentifierForLog, "version", targetVersion)
	return nil
}

// Open opens the database at dsn and brings it to TargetSchemaVersion.
func Open(ctx context.Context, dsn string, enableWAL bool, syncPragma string, log logging.Logger) (*sql.DB, error) {
	conn, err := OpenDBConnection(ctx, dsn, enableWAL, syncPragma)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInitialization, err)
	}
	if err := UpgradeDB(ctx, conn, dsn, TargetSchemaVersion, log); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
