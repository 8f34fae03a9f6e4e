package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/grovetools/ark/errors"
	"github.com/grovetools/ark/pkg/profiling"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Store loads and saves the whole registry. Load never fails: a missing or
// unreadable registry is an empty one. Save errors are returned so the
// caller can log them; no operation is failed because of them.
type Store interface {
	Load() Registry
	Save(reg Registry) error
}

// FileStore keeps the registry as a single JSON object in one file.
// There is no cross-process lock; the last writer wins.
type FileStore struct {
	fs     afero.Fs
	path   string
	logger *logrus.Entry
}

// NewFileStore creates a FileStore for path on fs.
func NewFileStore(fs afero.Fs, path string, logger *logrus.Entry) *FileStore {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &FileStore{fs: fs, path: path, logger: logger}
}

// Path returns the registry file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the registry. An unreadable file yields an empty registry; an
// unreadable record is dropped on its own. Both are logged.
func (s *FileStore) Load() Registry {
	defer profiling.Start("registry.load").Stop()
	reg := make(Registry)

	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.warn(errors.RegistryRead(s.path, err))
		}
		return reg
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.warn(errors.RegistryCorrupt(s.path, err))
		return reg
	}

	// Records decode one at a time so a bad entry only loses itself.
	for id, msg := range raw {
		var rec *Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			arkErr := errors.RegistryCorrupt(s.path, err).WithDetail("session_id", id)
			s.logger.WithError(arkErr).
				WithField("code", arkErr.Code).
				WithField("session_id", id).
				Warn("Skipping unreadable session record")
			continue
		}
		if rec == nil {
			continue
		}
		rec.SessionID = id
		reg[id] = rec
	}
	return reg
}

// Save writes the registry through a temp file in the same directory and
// renames it over the old one.
func (s *FileStore) Save(reg Registry) error {
	defer profiling.Start("registry.save").Stop()
	if reg == nil {
		reg = make(Registry)
	}
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return errors.RegistryWrite(s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0755); err != nil {
		return errors.RegistryWrite(s.path, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".active-*.tmp")
	if err != nil {
		return errors.RegistryWrite(s.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return errors.RegistryWrite(s.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return errors.RegistryWrite(s.path, err)
	}
	if err := s.fs.Rename(tmpName, s.path); err != nil {
		_ = s.fs.Remove(tmpName)
		return errors.RegistryWrite(s.path, err)
	}
	return nil
}

func (s *FileStore) warn(err *errors.ArkError) {
	s.logger.WithError(err).WithField("code", err.Code).Warn("Session registry unavailable, starting empty")
}

// MemoryStore is an in-process Store, used by tests and dry runs.
type MemoryStore struct {
	reg   Registry
	saves int
	err   error
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reg: make(Registry)}
}

// FailSaves makes every following Save return err.
func (m *MemoryStore) FailSaves(err error) {
	m.err = err
}

// Saves returns how many successful saves happened.
func (m *MemoryStore) Saves() int {
	return m.saves
}

// Load returns a deep copy of the stored registry.
func (m *MemoryStore) Load() Registry {
	return cloneRegistry(m.reg)
}

// Save replaces the stored registry with a copy of reg.
func (m *MemoryStore) Save(reg Registry) error {
	if m.err != nil {
		return m.err
	}
	m.reg = cloneRegistry(reg)
	m.saves++
	return nil
}

func cloneRegistry(reg Registry) Registry {
	out := make(Registry, len(reg))
	for id, rec := range reg {
		if rec == nil {
			continue
		}
		c := *rec
		if rec.DurationMin != nil {
			d := *rec.DurationMin
			c.DurationMin = &d
		}
		out[id] = &c
	}
	return out
}
