package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pable/matchstats/internal/model"
	"github.com/pable/matchstats/internal/storage"
)

func sampleMatch() model.MatchInfo {
	d, _ := model.ParseDate("2024-07-14")
	return model.MatchInfo{
		MatchID:      "wimbledon-final",
		MatchDate:    d,
		MatchSurface: model.NewNullString("Grass"),
		MatchResult:  model.NewNullString("W"),
		MatchMonth:   7,
		MatchYear:    2024,
	}
}

func TestPrintSuccess(t *testing.T) {
	var buf bytes.Buffer
	PrintSuccess(&buf, "m1")
	assert.Equal(t, "[✓] Processed match 'm1' and updated datasets.\n", buf.String())
}

func TestPrintIngestSummary(t *testing.T) {
	var buf bytes.Buffer
	s := SummaryFromCommit(sampleMatch(), 3, 5, 1, &storage.CommitResult{
		CoreRowsAdded: 15, CoreRowsTotal: 30, MatchRowsTotal: 2,
		BackedUp: []string{"core_stats", "match_info"},
	})
	PrintIngestSummary(&buf, s)

	out := buf.String()
	assert.Contains(t, out, "Match: wimbledon-final")
	assert.Contains(t, out, "Date: 2024-07-14")
	assert.Contains(t, out, "Surface: Grass")
	assert.Contains(t, out, "Level: —")
	assert.Contains(t, out, "30")
	assert.Contains(t, out, "core_stats, match_info")
}

func TestPrintMatchTable(t *testing.T) {
	var buf bytes.Buffer
	PrintMatchTable(&buf, []model.MatchInfo{sampleMatch()}, map[string]int{"wimbledon-final": 42})

	out := buf.String()
	assert.Contains(t, out, "MATCH_ID")
	assert.Contains(t, out, "wimbledon-final")
	assert.Contains(t, out, "Grass")
	assert.Contains(t, out, "42")
}

func TestPrintCoreStatsTable(t *testing.T) {
	var buf bytes.Buffer
	PrintCoreStatsTable(&buf, []model.CoreStatRow{
		{MetricCategory: "Serve", MetricSubcategory: "Aces", MetricType: "Player", MetricValue: model.NewNullFloat(12)},
		{MetricCategory: "Serve", MetricSubcategory: "Aces", MetricType: "Pct"},
	})

	out := buf.String()
	assert.Contains(t, out, "12.00")
	assert.Contains(t, out, "—")
}

func TestPrintQueryResult(t *testing.T) {
	var buf bytes.Buffer
	PrintQueryResult(&buf, []string{"n"}, nil)
	assert.Equal(t, "(no rows)\n", buf.String())

	buf.Reset()
	PrintQueryResult(&buf, []string{"match_id", "MetricValue"}, [][]string{{"m1", "15"}, {"m2", "9"}})
	assert.Contains(t, buf.String(), "match_id")
	assert.Contains(t, buf.String(), "MetricValue")
	assert.Contains(t, buf.String(), "(2 rows)")
	assert.Contains(t, buf.String(), "m2")
}

func TestPrintIntegrityReport(t *testing.T) {
	var buf bytes.Buffer
	PrintIntegrityReport(&buf, &storage.IntegrityReport{})
	assert.Contains(t, buf.String(), "OK:")

	buf.Reset()
	PrintIntegrityReport(&buf, &storage.IntegrityReport{OrphanMatchIDs: []string{"ghost"}})
	assert.Contains(t, buf.String(), "without match_info row (1)")
	assert.Contains(t, buf.String(), "  ghost")
}

func TestPrintOverview(t *testing.T) {
	var buf bytes.Buffer
	ov := &storage.Overview{TotalMatches: 3, CoreRows: 45, EarliestMatch: "2024-06-01", LatestMatch: "2024-08-30"}
	PrintOverview(&buf, ov, map[string][]storage.GroupCount{
		"Surface": {{Value: "Clay", Matches: 2}, {Value: "", Matches: 1}},
		"Type":    {{Value: "Singles", Matches: 3}},
	}, []string{"Surface", "Type"})

	out := buf.String()
	assert.Contains(t, out, "Matches stored : 3")
	assert.Contains(t, out, "2024-06-01 → 2024-08-30")
	assert.Contains(t, out, "--- Surface ---")
	assert.Contains(t, out, "Clay")
	assert.NotContains(t, out, "--- Type ---")
}
