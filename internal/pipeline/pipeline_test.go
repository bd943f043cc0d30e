package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pable/matchstats/internal/logging"
	"github.com/pable/matchstats/internal/metrics"
	"github.com/pable/matchstats/internal/model"
	"github.com/pable/matchstats/internal/parser"
	"github.com/pable/matchstats/internal/reshape"
	"github.com/pable/matchstats/internal/storage"
)

const export = `Category,Subcategory,Player,Opponent,Diff,Pct,Note
Serve,Aces,5,3,2,0.6,x
Serve,Double Faults,2,4,-2,0.3,y
Return,Points Won,31,28,3,n/a,z
matchSurface,Clay,,,,,
matchLevel,ATP 500,,,,,
matchType,Singles,,,,,
matchResult,W,,,,,
`

type env struct {
	dir   string
	paths storage.Paths
	input string
}

func newEnv(t *testing.T) env {
	t.Helper()
	dir := t.TempDir()
	input := filepath.Join(dir, "export.csv")
	require.NoError(t, os.WriteFile(input, []byte(export), 0644))
	return env{
		dir:   dir,
		input: input,
		paths: storage.Paths{
			CoreStats: filepath.Join(dir, "core_stats.csv"),
			MatchInfo: filepath.Join(dir, "match_info.csv"),
			BackupDir: filepath.Join(dir, "backup"),
		},
	}
}

func (e env) pipeline(opts ...Option) *Pipeline {
	return New(storage.Open(e.paths), opts...)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestRunAppendsBothDatasets(t *testing.T) {
	e := newEnv(t)
	p := e.pipeline(WithRunID(func() string { return "run-1" }))

	res, err := p.Run(Request{InputPath: e.input, MatchID: "m1", MatchDate: "2024-07-14"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, 3, res.DataRows)
	assert.Equal(t, 5, res.MetricColumns)
	assert.Equal(t, 15, res.CoreRowsAdded, "3 data rows x 5 metric columns")
	assert.Equal(t, 4, res.NullValues, "n/a plus the three Note strings")
	assert.Equal(t, 7, res.Match.MatchMonth)
	assert.Equal(t, 2024, res.Match.MatchYear)

	core, info, err := storage.Open(e.paths).LoadAll()
	require.NoError(t, err)
	require.Len(t, info, 1)
	assert.Equal(t, "m1", info[0].MatchID)
	assert.Equal(t, model.NewNullString("ATP 500"), info[0].MatchLevel)
	require.Len(t, core, 15)
	for _, r := range core {
		assert.Equal(t, "m1", r.MatchID)
		assert.Equal(t, r.MetricCategory+" | "+r.MetricSubcategory, r.MetricLabel)
	}
}

func TestRunShortMetadataRows(t *testing.T) {
	e := newEnv(t)
	in := filepath.Join(e.dir, "kv.csv")
	require.NoError(t, os.WriteFile(in, []byte("Category,Subcategory,Player,Opponent\n"+
		"Serve,Aces,5,3\n"+
		"matchSurface,Grass\n"+
		"matchLevel,Grand Slam\n"+
		"matchType,Singles\n"+
		"matchResult,L\n"), 0644))

	res, err := e.pipeline().Run(Request{InputPath: in, MatchID: "kv", MatchDate: "2024-07-14"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.CoreRowsAdded)
	assert.Equal(t, model.NewNullString("Grass"), res.Match.MatchSurface)
	assert.Equal(t, model.NewNullString("L"), res.Match.MatchResult)
}

func TestRunSeveralMatches(t *testing.T) {
	e := newEnv(t)
	p := e.pipeline()

	for i := 1; i <= 3; i++ {
		_, err := p.Run(Request{InputPath: e.input, MatchID: fmt.Sprintf("m%d", i), MatchDate: "2024-07-14"})
		require.NoError(t, err)
	}

	core, info, err := storage.Open(e.paths).LoadAll()
	require.NoError(t, err)
	assert.Len(t, core, 45)
	require.Len(t, info, 3)
	ids := []string{info[0].MatchID, info[1].MatchID, info[2].MatchID}
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids)

	counts := map[string]int{}
	for _, r := range core {
		counts[r.MatchID]++
	}
	assert.Equal(t, map[string]int{"m1": 15, "m2": 15, "m3": 15}, counts)
}

func TestRunDuplicateLeavesFilesIdentical(t *testing.T) {
	e := newEnv(t)
	p := e.pipeline()

	_, err := p.Run(Request{InputPath: e.input, MatchID: "m1", MatchDate: "2024-07-14"})
	require.NoError(t, err)
	_, err = p.Run(Request{InputPath: e.input, MatchID: "m2", MatchDate: "2024-07-21"})
	require.NoError(t, err)

	coreBefore := readFile(t, e.paths.CoreStats)
	infoBefore := readFile(t, e.paths.MatchInfo)
	coreBackupBefore := readFile(t, e.paths.BackupPath(storage.CoreStatsName))

	_, err = p.Run(Request{InputPath: e.input, MatchID: "m1", MatchDate: "2024-07-14"})
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrDuplicateMatchID)

	assert.Equal(t, coreBefore, readFile(t, e.paths.CoreStats))
	assert.Equal(t, infoBefore, readFile(t, e.paths.MatchInfo))
	assert.Equal(t, coreBackupBefore, readFile(t, e.paths.BackupPath(storage.CoreStatsName)))
}

func TestRunBackupReflectsPriorState(t *testing.T) {
	e := newEnv(t)
	p := e.pipeline()

	_, err := p.Run(Request{InputPath: e.input, MatchID: "m1", MatchDate: "2024-07-14"})
	require.NoError(t, err)
	assert.DirExists(t, e.paths.BackupDir)
	assert.NoFileExists(t, e.paths.BackupPath(storage.CoreStatsName))

	coreBefore := readFile(t, e.paths.CoreStats)
	infoBefore := readFile(t, e.paths.MatchInfo)

	_, err = p.Run(Request{InputPath: e.input, MatchID: "m2", MatchDate: "2024-07-21"})
	require.NoError(t, err)

	assert.Equal(t, coreBefore, readFile(t, filepath.Join(e.paths.BackupDir, "core_stats_backup.csv")))
	assert.Equal(t, infoBefore, readFile(t, filepath.Join(e.paths.BackupDir, "match_info_backup.csv")))
}

func TestRunErrors(t *testing.T) {
	e := newEnv(t)
	p := e.pipeline()

	short := filepath.Join(e.dir, "short.csv")
	require.NoError(t, os.WriteFile(short, []byte("a,b,c\nmatchSurface,Clay,\n"), 0644))

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"missing file", Request{InputPath: filepath.Join(e.dir, "nope.csv"), MatchID: "m", MatchDate: "2024-07-14"}, parser.ErrInputParse},
		{"short input", Request{InputPath: short, MatchID: "m", MatchDate: "2024-07-14"}, parser.ErrShortInput},
		{"bad date", Request{InputPath: e.input, MatchID: "m", MatchDate: "14/07/2024"}, reshape.ErrInvalidDate},
		{"blank id", Request{InputPath: e.input, MatchID: "  ", MatchDate: "2024-07-14"}, ErrMissingMatchID},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.Run(tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := os.Stat(e.paths.CoreStats)
	assert.True(t, os.IsNotExist(err), "no dataset written by failed runs")
	_, err = os.Stat(e.paths.MatchInfo)
	assert.True(t, os.IsNotExist(err))
}

func TestRunMetricsAndLogs(t *testing.T) {
	e := newEnv(t)
	rec := metrics.New()
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug", "json")
	require.NoError(t, err)
	p := e.pipeline(WithMetrics(rec), WithLogger(logger))

	_, err = p.Run(Request{InputPath: e.input, MatchID: "m1", MatchDate: "2024-07-14"})
	require.NoError(t, err)
	_, err = p.Run(Request{InputPath: e.input, MatchID: "m1", MatchDate: "2024-07-14"})
	require.Error(t, err)
	_, err = p.Run(Request{InputPath: e.input, MatchID: "m2", MatchDate: "bad"})
	require.Error(t, err)

	n, err := testutil.GatherAndCount(rec.Registry(), "matchstats_ingest_runs_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "success, duplicate and invalid_input series")

	prom := filepath.Join(e.dir, "m.prom")
	require.NoError(t, rec.WriteTextfile(prom))
	out := string(readFile(t, prom))
	assert.Contains(t, out, `matchstats_ingest_runs_total{result="duplicate"} 1`)
	assert.Contains(t, out, `matchstats_ingest_runs_total{result="invalid_input"} 1`)
	assert.Contains(t, out, "matchstats_core_rows_appended_total 15")

	logs := buf.String()
	assert.Contains(t, logs, `"msg":"ingest complete"`)
	assert.Contains(t, logs, `"msg":"ingest failed"`)
	assert.Contains(t, logs, `"run_id":`)
	assert.Equal(t, 2, strings.Count(logs, `"msg":"ingest failed"`))
}
