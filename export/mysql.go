package export

import (
	"context"
	"database/sql"
	"strings"

	"github.com/Aaronia-Open-source/RTSA-API-Samples/sdr"
)

const mysqlCreateTableTmpl = "CREATE TABLE IF NOT EXISTS spectre (" +
	"`ID` BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY," +
	"`Identifier` VARCHAR(255) NOT NULL," +
	"`Source` VARCHAR(64) NOT NULL," +
	"`FreqCenter` BIGINT," +
	"`FreqLow` BIGINT," +
	"`FreqHigh` BIGINT," +
	"`DBHigh` DOUBLE," +
	"`DBLow` DOUBLE," +
	"`DBAvg` DOUBLE," +
	"`SampleCount` BIGINT," +
	"`Start` BIGINT," +
	"`End` BIGINT," +
	"INDEX `source_freq` (`Source`, `FreqCenter`)" +
	");"

// mysqlInsertSampleTmpl quotes End with backticks, MySQL reads "End" as a
// string literal.
var mysqlInsertSampleTmpl = strings.Replace(insertSampleTmpl, `"End"`, "`End`", 1)

// MySQL stores samples in the spectre table of DB, which must have been
// opened with the mysql driver.
type MySQL struct {
	DB *sql.DB
}

func (m *MySQL) Write(ctx context.Context, samples <-chan sdr.Sample) error {
	return writeSQL(ctx, "mysql", m.DB, mysqlCreateTableTmpl, mysqlInsertSampleTmpl, samples)
}
