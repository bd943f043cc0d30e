package storage

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"slices"

	"github.com/gocarina/gocsv"
)

const matchIDColumn = "match_id"

var (
	// ErrDuplicateMatchID is returned when a match_id is already present in a dataset.
	ErrDuplicateMatchID = errors.New("duplicate match_id")
	// ErrDatasetSchema is returned when an existing dataset cannot be read as
	// the expected rows.
	ErrDatasetSchema = errors.New("dataset schema mismatch")
)

// Keyed rows belong to exactly one match.
type Keyed interface {
	MatchKey() string
}

// Dataset is a flat-file table of rows of type T.
type Dataset[T Keyed] struct {
	backend Backend
}

// NewDataset wraps backend as a dataset of T rows.
func NewDataset[T Keyed](backend Backend) *Dataset[T] {
	return &Dataset[T]{backend: backend}
}

// Name returns the dataset name.
func (d *Dataset[T]) Name() string { return d.backend.Name() }

// Backend returns the underlying storage.
func (d *Dataset[T]) Backend() Backend { return d.backend }

// Load returns every stored row in file order. A missing dataset is empty.
func (d *Dataset[T]) Load() ([]T, error) {
	raw, ok, err := d.backend.Read()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return d.decode(raw)
}

// Append returns existing followed by rows, or ErrDuplicateMatchID when
// matchID already occurs in existing.
func (d *Dataset[T]) Append(existing []T, matchID string, rows []T) ([]T, error) {
	if slices.ContainsFunc(existing, func(r T) bool { return r.MatchKey() == matchID }) {
		return nil, fmt.Errorf("%w: match_id %q already exists in %s", ErrDuplicateMatchID, matchID, d.Name())
	}
	merged := make([]T, 0, len(existing)+len(rows))
	merged = append(merged, existing...)
	return append(merged, rows...), nil
}

// SaveWithBackup copies the current contents to the backup, when the dataset
// exists, and then replaces the dataset with rows.
func (d *Dataset[T]) SaveWithBackup(rows []T) error {
	raw, ok, err := d.backend.Read()
	if err != nil {
		return err
	}
	if ok {
		if err := d.backend.Backup(raw); err != nil {
			return err
		}
	}
	out, err := d.encode(rows)
	if err != nil {
		return err
	}
	return d.backend.Write(out)
}

// stage loads the dataset, checks matchID is new and encodes the merged
// result without writing anything.
func (d *Dataset[T]) stage(matchID string, rows []T) (*staged, error) {
	raw, ok, err := d.backend.Read()
	if err != nil {
		return nil, err
	}
	var existing []T
	if ok {
		if existing, err = d.decode(raw); err != nil {
			return nil, err
		}
	}
	merged, err := d.Append(existing, matchID, rows)
	if err != nil {
		return nil, err
	}
	out, err := d.encode(merged)
	if err != nil {
		return nil, err
	}
	return &staged{
		backend: d.backend,
		before:  raw,
		existed: ok,
		after:   out,
		total:   len(merged),
	}, nil
}

func (d *Dataset[T]) decode(raw []byte) ([]T, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	if err := requireColumn(raw, matchIDColumn); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetSchema, d.Name(), err)
	}
	var rows []T
	if err := gocsv.UnmarshalBytes(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDatasetSchema, d.Name(), err)
	}
	return rows, nil
}

func (d *Dataset[T]) encode(rows []T) ([]byte, error) {
	out, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.Name(), err)
	}
	return out, nil
}

func requireColumn(raw []byte, name string) error {
	header, err := csv.NewReader(bytes.NewReader(raw)).Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if !slices.Contains(header, name) {
		return fmt.Errorf("missing %q column", name)
	}
	return nil
}

// staged is one dataset's pending write.
type staged struct {
	backend Backend
	before  []byte
	existed bool
	after   []byte
	total   int
}

func (s *staged) backup() error {
	if !s.existed {
		return nil
	}
	return s.backend.Backup(s.before)
}

func (s *staged) commit() error {
	return s.backend.Write(s.after)
}

func (s *staged) rollback() error {
	if !s.existed {
		return s.backend.Remove()
	}
	return s.backend.Write(s.before)
}
