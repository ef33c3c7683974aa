package export

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

// insertSampleTmpl is shared by the SQL exporters, both use ? placeholders.
const insertSampleTmpl = `INSERT INTO spectre (
		Identifier,
		Source,
		FreqCenter,
		FreqLow,
		FreqHigh,
		DBHigh,
		DBLow,
		DBAvg,
		SampleCount,
		Start,
		"End"
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

// writeSQL creates the spectre table with createTmpl and inserts samples
// until the channel is closed. Failed inserts are logged and counted.
func writeSQL(ctx context.Context, name string, db *sql.DB, createTmpl, insertTmpl string, samples <-chan sdr.Sample) error {
	if _, err := db.ExecContext(ctx, createTmpl); err != nil {
		return fmt.Errorf("unable to create table: %s", err)
	}
	statement, err := db.PrepareContext(ctx, insertTmpl)
	if err != nil {
		return fmt.Errorf("unable to prepare insert: %s", err)
	}
	defer statement.Close()

	c := &counts{name: name}
	for s := range samples {
		_, err := statement.ExecContext(ctx, s.Identifier, s.Source, s.FreqCenter, s.FreqLow, s.FreqHigh, s.DBHigh, s.DBLow, s.DBAvg, s.SampleCount, s.Start.UnixMilli(), s.End.UnixMilli())
		c.add(err)
	}
	c.log()
	return nil
}
