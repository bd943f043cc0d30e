package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/pable/matchstats/internal/model"
	"github.com/pable/matchstats/internal/storage"
)

const missing = "—"

func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignRight},
		},
		Header: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignCenter},
			// Column names are printed verbatim.
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
	}))
}

// PrintSuccess prints the one-line confirmation for an ingested match.
func PrintSuccess(w io.Writer, matchID string) {
	fmt.Fprintf(w, "[✓] Processed match '%s' and updated datasets.\n", matchID)
}

// IngestSummary is what PrintIngestSummary shows about one run.
type IngestSummary struct {
	Match          model.MatchInfo
	DataRows       int
	MetricColumns  int
	CoreRowsAdded  int
	NullValues     int
	CoreRowsTotal  int
	MatchRowsTotal int
	BackedUp       []string
}

// PrintIngestSummary prints the match header and a table of what changed.
func PrintIngestSummary(w io.Writer, s IngestSummary) {
	m := s.Match
	fmt.Fprintf(w, "\nMatch: %s  |  Date: %s  |  Surface: %s  |  Level: %s  |  Type: %s  |  Result: %s\n\n",
		m.MatchID, m.MatchDate, orMissing(m.MatchSurface), orMissing(m.MatchLevel),
		orMissing(m.MatchType), orMissing(m.MatchResult))

	table := newTable(w)
	table.Header("DATA ROWS", "METRICS", "ROWS ADDED", "NULL VALUES", "CORE_STATS", "MATCH_INFO", "BACKED UP")
	backedUp := missing
	if len(s.BackedUp) > 0 {
		backedUp = strings.Join(s.BackedUp, ", ")
	}
	table.Append(
		strconv.Itoa(s.DataRows),
		strconv.Itoa(s.MetricColumns),
		strconv.Itoa(s.CoreRowsAdded),
		strconv.Itoa(s.NullValues),
		strconv.Itoa(s.CoreRowsTotal),
		strconv.Itoa(s.MatchRowsTotal),
		backedUp,
	)
	table.Render()
}

// SummaryFromCommit fills an IngestSummary from a commit result.
func SummaryFromCommit(info model.MatchInfo, dataRows, metricCols, nulls int, c *storage.CommitResult) IngestSummary {
	return IngestSummary{
		Match:          info,
		DataRows:       dataRows,
		MetricColumns:  metricCols,
		CoreRowsAdded:  c.CoreRowsAdded,
		NullValues:     nulls,
		CoreRowsTotal:  c.CoreRowsTotal,
		MatchRowsTotal: c.MatchRowsTotal,
		BackedUp:       c.BackedUp,
	}
}

// PrintMatchTable lists matches with their core_stats row counts.
func PrintMatchTable(w io.Writer, matches []model.MatchInfo, coreRows map[string]int) {
	table := newTable(w)
	table.Header("MATCH_ID", "DATE", "SURFACE", "LEVEL", "TYPE", "RESULT", "ROWS")
	for _, m := range matches {
		table.Append(
			m.MatchID,
			m.MatchDate.String(),
			orMissing(m.MatchSurface),
			orMissing(m.MatchLevel),
			orMissing(m.MatchType),
			orMissing(m.MatchResult),
			strconv.Itoa(coreRows[m.MatchID]),
		)
	}
	table.Render()
}

// PrintCoreStatsTable prints long-format rows of one match.
func PrintCoreStatsTable(w io.Writer, rows []model.CoreStatRow) {
	table := newTable(w)
	table.Header("CATEGORY", "SUBCATEGORY", "METRIC", "VALUE")
	for _, r := range rows {
		table.Append(r.MetricCategory, r.MetricSubcategory, r.MetricType, r.MetricValue.String())
	}
	table.Render()
}

// PrintQueryResult prints raw query output followed by a row count.
func PrintQueryResult(w io.Writer, cols []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
		return
	}
	table := newTable(w)

	colsAny := make([]any, len(cols))
	for i, c := range cols {
		colsAny[i] = c
	}
	table.Header(colsAny...)

	for _, row := range rows {
		rowAny := make([]any, len(row))
		for i, v := range row {
			rowAny[i] = v
		}
		table.Append(rowAny...)
	}
	table.Render()
	fmt.Fprintf(w, "\n(%d rows)\n", len(rows))
}

// PrintIntegrityReport prints each violation list, or a single OK line.
func PrintIntegrityReport(w io.Writer, rep *storage.IntegrityReport) {
	if rep.OK() && len(rep.EmptyMatchIDs) == 0 {
		fmt.Fprintln(w, "OK: every core_stats row references exactly one match_info row.")
		return
	}
	section := func(title string, ids []string) {
		if len(ids) == 0 {
			return
		}
		fmt.Fprintf(w, "%s (%d):\n", title, len(ids))
		for _, id := range ids {
			fmt.Fprintf(w, "  %s\n", id)
		}
	}
	section("Duplicate match_id in match_info", rep.DuplicateMatchIDs)
	section("core_stats match_id without match_info row", rep.OrphanMatchIDs)
	section("match_info rows without core_stats rows (warning)", rep.EmptyMatchIDs)
}

func orMissing(s model.NullString) string {
	if !s.Valid {
		return missing
	}
	return s.String
}

// PrintOverview prints dataset totals and per-column match breakdowns.
// Breakdowns with a single value are omitted.
func PrintOverview(w io.Writer, ov *storage.Overview, breakdowns map[string][]storage.GroupCount, order []string) {
	fmt.Fprintf(w, "\n=== Dataset Summary ===\n\n")
	fmt.Fprintf(w, "  Matches stored : %d\n", ov.TotalMatches)
	fmt.Fprintf(w, "  Date range     : %s → %s\n", ov.EarliestMatch, ov.LatestMatch)
	fmt.Fprintf(w, "  Core rows      : %d\n", ov.CoreRows)
	fmt.Fprintf(w, "  Null values    : %d\n", ov.NullValues)
	fmt.Fprintf(w, "  Distinct stats : %d\n", ov.UniqueMetrics)

	for _, title := range order {
		groups := breakdowns[title]
		if len(groups) < 2 {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n\n", title)
		table := newTable(w)
		table.Header(strings.ToUpper(title), "MATCHES")
		for _, g := range groups {
			v := g.Value
			if v == "" {
				v = missing
			}
			table.Append(v, strconv.Itoa(g.Matches))
		}
		table.Render()
	}
}
