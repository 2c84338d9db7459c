package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"
	"github.com/vertgenlab/gonomics/bed"

	"github.com/inodb/vcfparse/internal/bedfilter"
)

// Intersector implements bedfilter.Intersector with a SQL range join.
type Intersector struct {
	store *Store
}

var _ bedfilter.Intersector = (*Intersector)(nil)

// NewIntersector creates an intersector using the store's database.
func NewIntersector(s *Store) *Intersector {
	return &Intersector{store: s}
}

// Intersect loads both BED files into interval tables and returns the names
// of the report intervals overlapping any source interval.
func (ix *Intersector) Intersect(ctx context.Context, reportBED, sourceBED string) (map[string]struct{}, error) {
	report, err := bedfilter.ReadBED(reportBED)
	if err != nil {
		return nil, err
	}
	source, err := bedfilter.ReadBED(sourceBED)
	if err != nil {
		return nil, err
	}

	conn, err := ix.store.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()
	defer dropIntervals(conn)

	if err := loadIntervals(ctx, conn, "report_intervals", report); err != nil {
		return nil, err
	}
	if err := loadIntervals(ctx, conn, "bed_intervals", source); err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, `SELECT DISTINCT r.id
		FROM report_intervals r
		JOIN bed_intervals b
		  ON r.chrom = b.chrom
		 AND r.chrom_start < b.chrom_end
		 AND b.chrom_start < r.chrom_end`)
	if err != nil {
		return nil, fmt.Errorf("intersect intervals: %w", err)
	}
	defer rows.Close()

	hits := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan interval: %w", err)
		}
		hits[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate intervals: %w", err)
	}
	return hits, nil
}

// dropIntervals removes the interval tables so that an export database only
// holds reports.
func dropIntervals(conn *sql.Conn) {
	for _, table := range []string{"report_intervals", "bed_intervals"} {
		conn.ExecContext(context.Background(), `DROP TABLE IF EXISTS `+table)
	}
}

// loadIntervals replaces table with the given BED records.
func loadIntervals(ctx context.Context, conn *sql.Conn, table string, recs []bed.Bed) error {
	if _, err := conn.ExecContext(ctx, `CREATE OR REPLACE TABLE `+table+` (
		chrom VARCHAR,
		chrom_start BIGINT,
		chrom_end BIGINT,
		id VARCHAR
	)`); err != nil {
		return fmt.Errorf("create %s: %w", table, err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, b := range recs {
		if err := appender.AppendRow(b.Chrom, int64(b.ChromStart), int64(b.ChromEnd), b.Name); err != nil {
			return fmt.Errorf("append %s: %w", table, err)
		}
	}
	return appender.Flush()
}
