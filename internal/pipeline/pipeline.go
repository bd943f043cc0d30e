// Package pipeline runs one export through load, extract, reshape and append.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pable/matchstats/internal/logging"
	"github.com/pable/matchstats/internal/metrics"
	"github.com/pable/matchstats/internal/model"
	"github.com/pable/matchstats/internal/parser"
	"github.com/pable/matchstats/internal/reshape"
	"github.com/pable/matchstats/internal/storage"
)

// ErrMissingMatchID is returned for a blank match_id.
var ErrMissingMatchID = errors.New("match_id is required")

// Request names one export and the identity of its match.
type Request struct {
	InputPath string
	MatchID   string
	MatchDate string
}

// Result summarises a successful run.
type Result struct {
	RunID         string
	Match         model.MatchInfo
	DataRows      int
	MetricColumns int
	CoreRowsAdded int
	NullValues    int
	Commit        *storage.CommitResult
}

// Pipeline appends exports to a Store.
type Pipeline struct {
	store    *storage.Store
	log      logrus.FieldLogger
	metrics  *metrics.Recorder
	newRunID func() string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger; the default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithMetrics records run metrics on m.
func WithMetrics(m *metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithRunID replaces the run ID generator.
func WithRunID(fn func() string) Option {
	return func(p *Pipeline) {
		if fn != nil {
			p.newRunID = fn
		}
	}
}

// New returns a Pipeline writing to store.
func New(store *storage.Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:    store,
		log:      logging.Discard(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one export. On error neither dataset has been modified,
// except when a write failed and its rollback failed too.
func (p *Pipeline) Run(req Request) (*Result, error) {
	runID := p.newRunID()
	log := p.log.WithFields(logrus.Fields{"run_id": runID, "match_id": req.MatchID})

	res, err := p.run(log, runID, req)
	if err != nil {
		p.recordFailure(err)
		log.WithError(err).Error("ingest failed")
		return nil, err
	}
	if p.metrics != nil {
		p.metrics.RunSucceeded(res.CoreRowsAdded, res.NullValues, map[string]int{
			storage.CoreStatsName: res.Commit.CoreRowsTotal,
			storage.MatchInfoName: res.Commit.MatchRowsTotal,
		})
	}
	log.WithFields(logrus.Fields{
		"core_rows":   res.CoreRowsAdded,
		"null_values": res.NullValues,
		"backed_up":   strings.Join(res.Commit.BackedUp, ","),
	}).Info("ingest complete")
	return res, nil
}

func (p *Pipeline) run(log logrus.FieldLogger, runID string, req Request) (*Result, error) {
	if strings.TrimSpace(req.MatchID) == "" {
		return nil, ErrMissingMatchID
	}

	start := time.Now()
	tbl, err := parser.Load(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}
	p.observe("load", start)
	log.WithFields(logrus.Fields{
		"file":      req.InputPath,
		"data_rows": tbl.Data.Len(),
		"metrics":   len(tbl.Data.MetricColumns()),
	}).Debug("input loaded")

	start = time.Now()
	info, err := reshape.ExtractMatchInfo(tbl.Metadata, req.MatchID, req.MatchDate)
	if err != nil {
		return nil, fmt.Errorf("extract match info: %w", err)
	}
	p.observe("extract", start)
	for key, v := range map[string]model.NullString{
		model.KeySurface: info.MatchSurface,
		model.KeyLevel:   info.MatchLevel,
		model.KeyType:    info.MatchType,
		model.KeyResult:  info.MatchResult,
	} {
		if !v.Valid {
			log.WithField("key", key).Warn("metadata key missing, leaving it empty")
		}
	}

	start = time.Now()
	rows := reshape.Melt(tbl.Data, req.MatchID)
	nulls := reshape.CountNull(rows)
	p.observe("reshape", start)
	log.WithFields(logrus.Fields{"rows": len(rows), "null_values": nulls}).Debug("reshaped to long format")

	start = time.Now()
	commit, err := p.store.Commit(req.MatchID, rows, info)
	if err != nil {
		return nil, fmt.Errorf("append datasets: %w", err)
	}
	p.observe("append", start)

	return &Result{
		RunID:         runID,
		Match:         info,
		DataRows:      tbl.Data.Len(),
		MetricColumns: len(tbl.Data.MetricColumns()),
		CoreRowsAdded: len(rows),
		NullValues:    nulls,
		Commit:        commit,
	}, nil
}

func (p *Pipeline) observe(stage string, start time.Time) {
	if p.metrics != nil {
		p.metrics.ObserveStage(stage, time.Since(start))
	}
}

func (p *Pipeline) recordFailure(err error) {
	if p.metrics == nil {
		return
	}
	switch {
	case errors.Is(err, storage.ErrDuplicateMatchID):
		p.metrics.RunFailed(metrics.ResultDuplicate)
	case errors.Is(err, parser.ErrInputParse),
		errors.Is(err, parser.ErrShortInput),
		errors.Is(err, reshape.ErrInvalidDate),
		errors.Is(err, ErrMissingMatchID):
		p.metrics.RunFailed(metrics.ResultInvalid)
	default:
		p.metrics.RunFailed(metrics.ResultError)
	}
}
