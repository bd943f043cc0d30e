package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNoBackup is returned by ReadBackup when no backup has been taken yet.
var ErrNoBackup = errors.New("no backup")

// Backend persists the serialized bytes of one dataset and its backup copy.
type Backend interface {
	// Name identifies the dataset in errors and logs.
	Name() string
	// Read returns the current contents; ok is false when the dataset does
	// not exist yet.
	Read() (data []byte, ok bool, err error)
	// Write replaces the dataset contents.
	Write(data []byte) error
	// Remove deletes the dataset. Removing a missing dataset is not an error.
	Remove() error
	// PrepareBackup makes sure a backup can be written, creating whatever
	// location it needs.
	PrepareBackup() error
	// Backup stores data as the backup copy, replacing any previous one.
	Backup(data []byte) error
	// ReadBackup returns the backup copy or ErrNoBackup.
	ReadBackup() ([]byte, error)
}

// FileBackend keeps a dataset in a delimited file next to a fixed backup path.
type FileBackend struct {
	name       string
	path       string
	backupPath string
}

// NewFileBackend returns a backend for the dataset at path whose backups go
// to backupPath.
func NewFileBackend(name, path, backupPath string) *FileBackend {
	return &FileBackend{name: name, path: path, backupPath: backupPath}
}

func (b *FileBackend) Name() string { return b.name }

// Path returns the dataset file path.
func (b *FileBackend) Path() string { return b.path }

// BackupPath returns the backup file path.
func (b *FileBackend) BackupPath() string { return b.backupPath }

func (b *FileBackend) Read() ([]byte, bool, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, true, nil
}

// Write replaces the file through a temp file in the same directory so a
// failed write never leaves a truncated dataset behind.
func (b *FileBackend) Write(data []byte) error {
	if err := writeFileAtomic(b.path, data); err != nil {
		return fmt.Errorf("write %s: %w", b.path, err)
	}
	return nil
}

func (b *FileBackend) Remove() error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", b.path, err)
	}
	return nil
}

// PrepareBackup creates the backup directory if absent.
func (b *FileBackend) PrepareBackup() error {
	if err := os.MkdirAll(filepath.Dir(b.backupPath), 0755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	return nil
}

func (b *FileBackend) Backup(data []byte) error {
	if err := b.PrepareBackup(); err != nil {
		return err
	}
	if err := writeFileAtomic(b.backupPath, data); err != nil {
		return fmt.Errorf("write backup %s: %w", b.backupPath, err)
	}
	return nil
}

func (b *FileBackend) ReadBackup() ([]byte, error) {
	data, err := os.ReadFile(b.backupPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", b.backupPath, ErrNoBackup)
	}
	if err != nil {
		return nil, fmt.Errorf("read backup %s: %w", b.backupPath, err)
	}
	return data, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// MemoryBackend keeps a dataset in memory. WriteErr, when set, makes every
// Write fail with it.
type MemoryBackend struct {
	name      string
	data      []byte
	exists    bool
	backup    []byte
	hasBackup bool

	WriteErr error
}

// NewMemoryBackend returns an empty in-memory dataset.
func NewMemoryBackend(name string) *MemoryBackend {
	return &MemoryBackend{name: name}
}

// Seed sets the dataset contents as if a file already existed.
func (m *MemoryBackend) Seed(data []byte) {
	m.data = append([]byte(nil), data...)
	m.exists = true
}

// Bytes returns the current contents and whether the dataset exists.
func (m *MemoryBackend) Bytes() ([]byte, bool) {
	return m.data, m.exists
}

func (m *MemoryBackend) Name() string { return m.name }

func (m *MemoryBackend) Read() ([]byte, bool, error) {
	if !m.exists {
		return nil, false, nil
	}
	return append([]byte(nil), m.data...), true, nil
}

func (m *MemoryBackend) Write(data []byte) error {
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Seed(data)
	return nil
}

func (m *MemoryBackend) Remove() error {
	m.data, m.exists = nil, false
	return nil
}

func (m *MemoryBackend) PrepareBackup() error { return nil }

func (m *MemoryBackend) Backup(data []byte) error {
	m.backup = append([]byte(nil), data...)
	m.hasBackup = true
	return nil
}

func (m *MemoryBackend) ReadBackup() ([]byte, error) {
	if !m.hasBackup {
		return nil, fmt.Errorf("%s: %w", m.name, ErrNoBackup)
	}
	return append([]byte(nil), m.backup...), nil
}
