package storage

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pable/matchstats/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// QueryDB is a throwaway in-memory SQLite copy of both datasets used for
// ad-hoc queries and integrity checks. Nothing is written back.
type QueryDB struct {
	conn *sql.DB
}

// OpenQueryDB creates an in-memory database and loads the given rows into the
// core_stats and match_info tables.
func OpenQueryDB(core []model.CoreStatRow, info []model.MatchInfo) (*QueryDB, error) {
	conn, err := sql.Open("sqlite", "file::memory:")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Every pooled connection would otherwise see its own empty database.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	db := &QueryDB{conn: conn}
	if err := db.insertMatchInfo(info); err != nil {
		conn.Close()
		return nil, err
	}
	if err := db.insertCoreStats(core); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *QueryDB) Close() error {
	return db.conn.Close()
}

func (db *QueryDB) insertMatchInfo(rows []model.MatchInfo) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO match_info(
			match_id, match_date, match_surface, match_level,
			match_type, match_result, match_month, match_year
		) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range rows {
		_, err = stmt.Exec(
			m.MatchID, m.MatchDate.String(),
			nullString(m.MatchSurface), nullString(m.MatchLevel),
			nullString(m.MatchType), nullString(m.MatchResult),
			m.MatchMonth, m.MatchYear,
		)
		if err != nil {
			return fmt.Errorf("insert match_info %s: %w", m.MatchID, err)
		}
	}
	return tx.Commit()
}

func (db *QueryDB) insertCoreStats(rows []model.CoreStatRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO core_stats(
			MetricCategory, MetricSubcategory, MetricType,
			MetricValue, MetricLabel, match_id
		) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err = stmt.Exec(
			r.MetricCategory, r.MetricSubcategory, r.MetricType,
			nullFloat(r.MetricValue), r.MetricLabel, r.MatchID,
		)
		if err != nil {
			return fmt.Errorf("insert core_stats: %w", err)
		}
	}
	return tx.Commit()
}

// QueryRaw runs an arbitrary query and returns column names and rows
// rendered as strings. NULL renders as "NULL".
func (db *QueryDB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// CoreRowCounts returns the number of core_stats rows per match_id.
func (db *QueryDB) CoreRowCounts() (map[string]int, error) {
	rows, err := db.conn.Query(`SELECT match_id, COUNT(1) FROM core_stats GROUP BY match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// IntegrityReport lists violations of the dataset invariants.
type IntegrityReport struct {
	// DuplicateMatchIDs occur more than once in match_info.
	DuplicateMatchIDs []string
	// OrphanMatchIDs appear in core_stats without a match_info row.
	OrphanMatchIDs []string
	// EmptyMatchIDs have a match_info row but no core_stats rows.
	EmptyMatchIDs []string
}

// OK reports whether no violation was found. Matches without core rows are
// legal (an export with no data rows) and do not count.
func (r *IntegrityReport) OK() bool {
	return len(r.DuplicateMatchIDs) == 0 && len(r.OrphanMatchIDs) == 0
}

// CheckIntegrity checks match_id uniqueness and core_stats references.
func (db *QueryDB) CheckIntegrity() (*IntegrityReport, error) {
	var rep IntegrityReport
	var err error
	rep.DuplicateMatchIDs, err = db.column(`
		SELECT match_id FROM match_info
		GROUP BY match_id HAVING COUNT(1) > 1
		ORDER BY match_id`)
	if err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	}
	rep.OrphanMatchIDs, err = db.column(`
		SELECT DISTINCT c.match_id FROM core_stats c
		LEFT JOIN match_info m ON m.match_id = c.match_id
		WHERE m.match_id IS NULL
		ORDER BY c.match_id`)
	if err != nil {
		return nil, fmt.Errorf("orphan check: %w", err)
	}
	rep.EmptyMatchIDs, err = db.column(`
		SELECT m.match_id FROM match_info m
		WHERE NOT EXISTS (SELECT 1 FROM core_stats c WHERE c.match_id = m.match_id)
		ORDER BY m.match_id`)
	if err != nil {
		return nil, fmt.Errorf("empty match check: %w", err)
	}
	return &rep, nil
}

// Overview holds aggregate figures across all stored matches.
type Overview struct {
	TotalMatches  int
	CoreRows      int
	NullValues    int
	UniqueMetrics int
	EarliestMatch string
	LatestMatch   string
}

// GetOverview returns totals over both tables.
func (db *QueryDB) GetOverview() (*Overview, error) {
	var ov Overview
	var earliest, latest sql.NullString
	err := db.conn.QueryRow(`
		SELECT COUNT(1), MIN(match_date), MAX(match_date) FROM match_info`).
		Scan(&ov.TotalMatches, &earliest, &latest)
	if err != nil {
		return nil, fmt.Errorf("match totals: %w", err)
	}
	ov.EarliestMatch, ov.LatestMatch = earliest.String, latest.String

	err = db.conn.QueryRow(`
		SELECT COUNT(1),
		       COUNT(1) - COUNT(MetricValue),
		       COUNT(DISTINCT MetricLabel || '|' || MetricType)
		FROM core_stats`).
		Scan(&ov.CoreRows, &ov.NullValues, &ov.UniqueMetrics)
	if err != nil {
		return nil, fmt.Errorf("core totals: %w", err)
	}
	return &ov, nil
}

// GroupCount is the number of matches sharing one value.
type GroupCount struct {
	Value   string
	Matches int
}

// groupColumns are the match_info columns GetMatchCounts accepts.
var groupColumns = map[string]bool{
	"match_surface": true,
	"match_level":   true,
	"match_type":    true,
	"match_result":  true,
	"match_year":    true,
}

// GetMatchCounts counts matches per distinct value of a match_info column,
// most frequent first. Missing values are grouped under "".
func (db *QueryDB) GetMatchCounts(column string) ([]GroupCount, error) {
	if !groupColumns[column] {
		return nil, fmt.Errorf("cannot group by %q", column)
	}
	rows, err := db.conn.Query(fmt.Sprintf(`
		SELECT COALESCE(CAST(%[1]s AS TEXT), ''), COUNT(1) FROM match_info
		GROUP BY 1 ORDER BY 2 DESC, 1`, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Value, &g.Matches); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (db *QueryDB) column(query string) ([]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullString(s model.NullString) any {
	if !s.Valid {
		return nil
	}
	return s.String
}

func nullFloat(f model.NullFloat) any {
	if !f.Valid {
		return nil
	}
	return f.Float64
}

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
