package export

import (
	"context"
	"database/sql"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

const sqliteCreateTableTmpl = `CREATE TABLE IF NOT EXISTS spectre (
		"ID"           INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT,
		"Identifier"   TEXT NOT NULL,
		"Source"       TEXT NOT NULL,
		"FreqCenter"   INTEGER,
		"FreqLow"      INTEGER,
		"FreqHigh"     INTEGER,
		"DBHigh"       REAL,
		"DBLow"        REAL,
		"DBAvg"        REAL,
		"SampleCount"  INTEGER,
		"Start"        INTEGER,
		"End"          INTEGER
	);`

// SQLite stores samples in the spectre table of DB, which must have been
// opened with the sqlite3 driver.
type SQLite struct {
	DB *sql.DB
}

func (s *SQLite) Write(ctx context.Context, samples <-chan sdr.Sample) error {
	return writeSQL(ctx, "sqlite", s.DB, sqliteCreateTableTmpl, insertSampleTmpl, samples)
}
