package db

const (
	// SchemaV1 creates the contents table. Tags are a JSON array in a single
	// text column; favorite is stored as 0/1.
	SchemaV1 = `
CREATE TABLE IF NOT EXISTS contents (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    type TEXT NOT NULL,
    url TEXT,
    title TEXT,
    imageUrl TEXT,
    description TEXT,
    summary TEXT,
    comment TEXT,
    category TEXT,
    tags TEXT,
    isFavorite INTEGER,
    directions TEXT,
    latitude REAL,
    longitude REAL,
    created TEXT DEFAULT CURRENT_TIMESTAMP
);
`
)

// migrations[i] moves the schema from version i to version i+1.
var migrations = []string{
	SchemaV1,
}
