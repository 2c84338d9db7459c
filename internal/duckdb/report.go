package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vcfparse/internal/output"
)

// ExportedReport describes a report stored in the database.
type ExportedReport struct {
	Name string
	Rows int64
	File ReportFile
}

// Row is one stored report line, cells keyed by header.
type Row struct {
	Line  int64
	Cells map[string]string
}

// ExportReport loads the report file at path and stores it under name,
// replacing an earlier export of the same name. An export of the same,
// unchanged file is kept as is. Variants are read from variantColumn, or
// the second column when the report lacks it.
func (s *Store) ExportReport(name, path, variantColumn string) error {
	prev, ok, err := s.exportedFile(name)
	if err != nil {
		return err
	}
	if ok && prev.Path == path && prev.Unchanged() {
		return nil
	}

	fp, err := StatReport(path)
	if err != nil {
		return fmt.Errorf("stat report: %w", err)
	}
	t, err := output.ReadTable(path)
	if err != nil {
		return err
	}
	idCol, err := t.Column(variantColumn)
	if err != nil {
		idCol = 1
	}
	return s.WriteReport(name, t, idCol, fp)
}

// exportedFile returns the file a stored report was loaded from.
func (s *Store) exportedFile(name string) (ReportFile, bool, error) {
	var f ReportFile
	err := s.db.QueryRow(`SELECT path, size, mod_time FROM reports WHERE report=?`, name).
		Scan(&f.Path, &f.Size, &f.ModTime)
	if errors.Is(err, sql.ErrNoRows) {
		return ReportFile{}, false, nil
	}
	if err != nil {
		return ReportFile{}, false, fmt.Errorf("query report: %w", err)
	}
	return f, true, nil
}

// WriteReport stores every cell of t using the Appender API.
func (s *Store) WriteReport(name string, t *output.Table, idCol int, fp ReportFile) error {
	if err := s.ClearReport(name); err != nil {
		return err
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "report_cells")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for i, row := range t.Rows {
		line := int64(i + 1)
		variant := output.Cell(row, idCol)
		for c, col := range t.Header {
			if err := appender.AppendRow(name, line, variant, col, output.Cell(row, c)); err != nil {
				return fmt.Errorf("append report cell: %w", err)
			}
		}
	}
	if err := appender.Flush(); err != nil {
		return fmt.Errorf("flush report cells: %w", err)
	}

	if _, err := s.db.Exec(`INSERT OR REPLACE INTO reports VALUES (?, ?, ?, ?, ?)`,
		name, fp.Path, fp.Size, fp.ModTime, int64(len(t.Rows))); err != nil {
		return fmt.Errorf("record report: %w", err)
	}
	return nil
}

// ClearReport removes a stored report.
func (s *Store) ClearReport(name string) error {
	if _, err := s.db.Exec("DELETE FROM report_cells WHERE report=?", name); err != nil {
		return fmt.Errorf("clear report cells: %w", err)
	}
	if _, err := s.db.Exec("DELETE FROM reports WHERE report=?", name); err != nil {
		return fmt.Errorf("clear report: %w", err)
	}
	return nil
}

// LookupVariant returns the stored rows of one variant, in report order.
func (s *Store) LookupVariant(report, variant string) ([]Row, error) {
	rows, err := s.db.Query(`SELECT line, column_name, value
		FROM report_cells
		WHERE report=? AND variant=?
		ORDER BY line`, report, variant)
	if err != nil {
		return nil, fmt.Errorf("query variant: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			line       int64
			col, value string
		)
		if err := rows.Scan(&line, &col, &value); err != nil {
			return nil, fmt.Errorf("scan report cell: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Line != line {
			out = append(out, Row{Line: line, Cells: make(map[string]string)})
		}
		out[len(out)-1].Cells[col] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report cells: %w", err)
	}
	return out, nil
}

// Reports lists the stored reports by name.
func (s *Store) Reports() ([]ExportedReport, error) {
	rows, err := s.db.Query(`SELECT report, path, size, mod_time, rows FROM reports ORDER BY report`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer rows.Close()

	var out []ExportedReport
	for rows.Next() {
		var r ExportedReport
		if err := rows.Scan(&r.Name, &r.File.Path, &r.File.Size, &r.File.ModTime, &r.Rows); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return out, nil
}
