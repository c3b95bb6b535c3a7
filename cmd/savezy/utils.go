package main

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/savezy/savezy/pkg/cache"
	"github.com/savezy/savezy/pkg/contents"
	"github.com/savezy/savezy/pkg/db"
	"github.com/savezy/savezy/pkg/remote"
	"github.com/savezy/savezy/pkg/utils"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

func resolveDBPath() (string, error) {
	return utils.ResolveAndEnsureDBPath(cfg.DBPath)
}

// openCache opens and upgrades the database and loads every record into a new cache.
// The returned close func checkpoints the WAL before closing.
func openCache(ctx context.Context) (*cache.Cache, func(), error) {
	path, err := resolveDBPath()
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.Open(ctx, path, cfg.WAL, cfg.SyncMode, logger)
	if err != nil {
		return nil, nil, err
	}

	c := cache.New(contents.NewSQLiteStore(conn), logger)
	if err := c.Refresh(ctx); err != nil {
		conn.Close()
		return nil, nil, err
	}
	return c, func() { closeDB(ctx, conn) }, nil
}

func closeDB(ctx context.Context, conn *sql.DB) {
	if cfg.WAL {
		if err := db.Checkpoint(ctx, conn); err != nil {
			logger.Warn(ctx, "WAL checkpoint failed during close", "err", err)
		}
	}
	conn.Close()
}

// newRemoteClient builds a client signed in with the saved session, if any.
func newRemoteClient() (*remote.Client, error) {
	s, err := remote.LoadSession(cfg.SessionPath)
	if err != nil {
		return nil, err
	}
	return remote.NewClient(cfg.RemoteURL, logger, remote.WithSession(s)), nil
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}
	fmt.Fprintln(w, string(output))
	return nil
}

// describeError turns errors from the cache and the remote mirror into the
// short messages users see.
func describeError(err error) string {
	switch {
	case errors.Is(err, cache.ErrItemNotFound):
		return "Item not found"
	case errors.Is(err, contents.ErrInvalidRecord), errors.Is(err, contents.ErrUnknownKind):
		return err.Error()
	case errors.Is(err, db.ErrInitialization):
		return fmt.Sprintf("Failed to open database: %v", err)
	case errors.Is(err, remote.ErrNotAuthenticated):
		return fmt.Sprintf("Not signed in to the remote mirror (run 'savezy remote login'): %v", err)
	case errors.Is(err, remote.ErrRemoteUnavailable):
		return fmt.Sprintf("Remote mirror unavailable: %v", err)
	}
	var mErr *cache.MutationError
	if errors.As(err, &mErr) {
		return fmt.Sprintf("%s: %v", mErr.Message(), mErr.Err)
	}
	return err.Error()
}

// readLine prints prompt to w and reads one trimmed line.
func readLine(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// getPassword reads a password from the terminal without echo.
func getPassword(w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
