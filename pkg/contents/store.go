package contents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("content not found")
	ErrStoreIO  = errors.New("content store failure")
)

const (
	contentColumns = `id, type, url, title, imageUrl, description, summary, comment, category, tags, isFavorite, directions, latitude, longitude, created`

	insertContentStatement = `
	INSERT INTO contents (type, url, title, imageUrl, description, summary, comment, category, tags, isFavorite, directions, latitude, longitude, created)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP))
	`

	getContentStatement = `
	SELECT ` + contentColumns + `
	FROM contents
	WHERE id = ?
	`

	selectAllContentsStatement = `
	SELECT ` + contentColumns + `
	FROM contents
	ORDER BY created DESC, id DESC
	`

	updateContentStatement = `
	UPDATE contents
	SET url = ?, title = ?, imageUrl = ?, description = ?, summary = ?, comment = ?, category = ?,
		tags = ?, isFavorite = ?, directions = ?, latitude = ?, longitude = ?
	WHERE id = ?
	`

	deleteContentStatement = `
	DELETE FROM contents
	WHERE id = ?
	`
)

// SQLiteStore is the durable contents table. Every call is a single implicit
// transaction; it holds no state besides the connection.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Insert stores r and returns it with the assigned ID and created timestamp.
// r.ID is ignored; Created falls back to the column default when empty.
func (s *SQLiteStore) Insert(ctx context.Context, r Record) (Record, error) {
	tags, err := EncodeTags(r.Tags)
	if err != nil {
		return Record{}, err
	}

	res, err := s.db.ExecContext(
		ctx,
		insertContentStatement,
		string(r.Kind),
		nullString(r.URL),
		nullString(r.Title),
		nullString(r.ImageURL),
		nullString(r.Description),
		nullString(r.Summary),
		nullString(r.Comment),
		nullString(r.Category),
		tags,
		boolToInt(r.Favorite),
		nullString(r.Directions),
		nullFloat(r.Latitude),
		nullFloat(r.Longitude),
		nullString(r.Created),
	)
	if err != nil {
		return Record{}, fmt.Errorf("%w: insert content: %w", ErrStoreIO, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return Record{}, fmt.Errorf("%w: read inserted id: %w", ErrStoreIO, err)
	}

	return s.Get(ctx, id)
}

// Get returns the row with id, or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (Record, error) {
	r, err := scanRecord(s.db.QueryRowContext(ctx, getContentStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("%w: get content %d: %w", ErrStoreIO, id, err)
	}
	return r, nil
}

// SelectAll returns every row, newest first. Rows sharing a created timestamp
// are ordered by descending id.
func (s *SQLiteStore) SelectAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, selectAllContentsStatement)
	if err != nil {
		return nil, fmt.Errorf("%w: select contents: %w", ErrStoreIO, err)
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan content row: %w", ErrStoreIO, err)
		}
		records = append(records, r)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate contents: %w", ErrStoreIO, err)
	}

	return records, nil
}

// Update rewrites every mutable column of row id with r. r must be the full
// effective record. Kind and created are left untouched.
// A missing row is reported as ErrNotFound.
func (s *SQLiteStore) Update(ctx context.Context, id int64, r Record) (Record, error) {
	tags, err := EncodeTags(r.Tags)
	if err != nil {
		return Record{}, err
	}

	res, err := s.db.ExecContext(
		ctx,
		updateContentStatement,
		nullString(r.URL),
		nullString(r.Title),
		nullString(r.ImageURL),
		nullString(r.Description),
		nullString(r.Summary),
		nullString(r.Comment),
		nullString(r.Category),
		tags,
		boolToInt(r.Favorite),
		nullString(r.Directions),
		nullFloat(r.Latitude),
		nullFloat(r.Longitude),
		id,
	)
	if err != nil {
		return Record{}, fmt.Errorf("%w: update content %d: %w", ErrStoreIO, id, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Record{}, fmt.Errorf("%w: read rows affected: %w", ErrStoreIO, err)
	}

	if rowsAffected == 0 {
		return Record{}, ErrNotFound
	}

	return s.Get(ctx, id)
}

// Delete removes row id. Deleting a missing row is not an error.
func (s *SQLiteStore) Delete(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, deleteContentStatement, id); err != nil {
		return fmt.Errorf("%w: delete content %d: %w", ErrStoreIO, id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r                                 Record
		kind                              string
		url, title, imageURL, description sql.NullString
		summary, comment, category, tags  sql.NullString
		directions, created               sql.NullString
		favorite                          sql.NullInt64
		latitude, longitude               sql.NullFloat64
	)

	err := row.Scan(
		&r.ID,
		&kind,
		&url,
		&title,
		&imageURL,
		&description,
		&summary,
		&comment,
		&category,
		&tags,
		&favorite,
		&directions,
		&latitude,
		&longitude,
		&created,
	)
	if err != nil {
		return Record{}, err
	}

	r.Kind = Kind(kind)
	r.URL = url.String
	r.Title = title.String
	r.ImageURL = imageURL.String
	r.Description = description.String
	r.Summary = summary.String
	r.Comment = comment.String
	r.Category = category.String
	r.Directions = directions.String
	r.Created = created.String
	r.Favorite = favorite.Valid && favorite.Int64 != 0
	if latitude.Valid {
		lat := latitude.Float64
		r.Latitude = &lat
	}
	if longitude.Valid {
		lng := longitude.Float64
		r.Longitude = &lng
	}

	r.Tags, err = DecodeTags(tags)
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// boolToInt converts at the boundary; the engine has no boolean column type.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
