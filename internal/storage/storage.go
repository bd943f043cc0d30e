package storage

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/pable/matchstats/internal/model"
)

// Dataset names; backups are written as <name>_backup.csv.
const (
	CoreStatsName = "core_stats"
	MatchInfoName = "match_info"
)

// Paths locates the two datasets and the backup directory.
type Paths struct {
	CoreStats string
	MatchInfo string
	BackupDir string
}

// BackupPath returns the fixed backup location of the named dataset.
func (p Paths) BackupPath(name string) string {
	return filepath.Join(p.BackupDir, name+"_backup.csv")
}

// Store holds the core_stats and match_info datasets.
type Store struct {
	core *Dataset[model.CoreStatRow]
	info *Dataset[model.MatchInfo]
}

// Open returns a Store over the flat files named by p.
func Open(p Paths) *Store {
	return NewStore(
		NewFileBackend(CoreStatsName, p.CoreStats, p.BackupPath(CoreStatsName)),
		NewFileBackend(MatchInfoName, p.MatchInfo, p.BackupPath(MatchInfoName)),
	)
}

// NewStore returns a Store over arbitrary backends.
func NewStore(core, info Backend) *Store {
	return &Store{
		core: NewDataset[model.CoreStatRow](core),
		info: NewDataset[model.MatchInfo](info),
	}
}

// CoreStats returns the core_stats dataset.
func (s *Store) CoreStats() *Dataset[model.CoreStatRow] { return s.core }

// MatchInfo returns the match_info dataset.
func (s *Store) MatchInfo() *Dataset[model.MatchInfo] { return s.info }

// CommitResult describes a successful Commit.
type CommitResult struct {
	CoreRowsAdded  int
	CoreRowsTotal  int
	MatchRowsTotal int
	// BackedUp lists the datasets whose previous contents were backed up.
	BackedUp []string
}

// Commit appends one match to both datasets, or to neither.
//
// The backup location is created first, on every call. Both datasets are
// then loaded and checked for matchID (core_stats first) before
// anything is touched, so a duplicate leaves datasets and backups as they
// were. Existing datasets are then backed up and written in order; if the
// match_info write fails the core_stats write is undone.
func (s *Store) Commit(matchID string, core []model.CoreStatRow, info model.MatchInfo) (*CommitResult, error) {
	for _, b := range []Backend{s.core.Backend(), s.info.Backend()} {
		if err := b.PrepareBackup(); err != nil {
			return nil, fmt.Errorf("prepare backup %s: %w", b.Name(), err)
		}
	}
	coreStage, err := s.core.stage(matchID, core)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", s.core.Name(), err)
	}
	infoStage, err := s.info.stage(matchID, []model.MatchInfo{info})
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", s.info.Name(), err)
	}

	res := &CommitResult{
		CoreRowsAdded:  len(core),
		CoreRowsTotal:  coreStage.total,
		MatchRowsTotal: infoStage.total,
	}
	for _, st := range []*staged{coreStage, infoStage} {
		if err := st.backup(); err != nil {
			return nil, fmt.Errorf("backup %s: %w", st.backend.Name(), err)
		}
		if st.existed {
			res.BackedUp = append(res.BackedUp, st.backend.Name())
		}
	}

	if err := coreStage.commit(); err != nil {
		return nil, fmt.Errorf("write %s: %w", s.core.Name(), err)
	}
	if err := infoStage.commit(); err != nil {
		err = fmt.Errorf("write %s: %w", s.info.Name(), err)
		if rbErr := coreStage.rollback(); rbErr != nil {
			return nil, errors.Join(err, fmt.Errorf("roll back %s: %w", s.core.Name(), rbErr))
		}
		return nil, err
	}
	return res, nil
}

// LoadAll returns the contents of both datasets.
func (s *Store) LoadAll() ([]model.CoreStatRow, []model.MatchInfo, error) {
	core, err := s.core.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", s.core.Name(), err)
	}
	info, err := s.info.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load %s: %w", s.info.Name(), err)
	}
	return core, info, nil
}

// RestoreBackups writes each dataset's backup back over it and returns the
// names of the datasets restored. Datasets without a backup are skipped.
func (s *Store) RestoreBackups() ([]string, error) {
	var restored []string
	for _, b := range []Backend{s.core.Backend(), s.info.Backend()} {
		data, err := b.ReadBackup()
		if errors.Is(err, ErrNoBackup) {
			continue
		}
		if err != nil {
			return restored, err
		}
		if err := b.Write(data); err != nil {
			return restored, fmt.Errorf("restore %s: %w", b.Name(), err)
		}
		restored = append(restored, b.Name())
	}
	return restored, nil
}
