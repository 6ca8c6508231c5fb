// Package safefile persists single JSON documents on local disk.
//
// Writes go through a temp file in the target directory followed by an atomic rename, so a
// crash mid-write leaves either the old or the new document, never a torn one. Reads decode
// strictly; a document that fails to decode is moved to the quarantine area and reported as
// recovered instead of surfacing the decode error.
package safefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vitalcoach/coach-api/internal/platform/clock"
	"github.com/vitalcoach/coach-api/internal/platform/logging"
	"github.com/vitalcoach/coach-api/internal/platform/metrics"
	clockport "github.com/vitalcoach/coach-api/internal/ports/out/clock"
	"github.com/vitalcoach/coach-api/internal/ports/out/docstore"
)

// CorruptedDir is the quarantine directory, relative to the store root.
const CorruptedDir = "_corrupted"

// backupTimeLayout is ISO 8601 basic format, which keeps colons out of file names.
const backupTimeLayout = "20060102T150405.000000000Z"

var ErrInvalidName = errors.New("invalid document name")

// Store is a docstore.Store rooted at a directory.
type Store struct {
	root    string
	clk     clockport.Clock
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Store)

func WithClock(clk clockport.Clock) Option {
	return func(s *Store) { s.clk = clk }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func New(root string, opts ...Option) *Store {
	s := &Store{root: root, clk: clock.SystemClock{}}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

var _ docstore.Store = (*Store)(nil)

// Root returns the directory documents are stored under.
func (s *Store) Root() string { return s.root }

// Path resolves a document name to its absolute location.
func (s *Store) Path(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == "." || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if first := strings.SplitN(filepath.ToSlash(clean), "/", 2)[0]; first == CorruptedDir {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return filepath.Join(s.root, clean), nil
}

// Save writes doc as indented JSON using temp-file + rename.
func (s *Store) Save(name string, doc any) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory for %s: %w", name, err)
	}
	return writeAtomic(dir, path, data)
}

// Load decodes the named document into dst.
func (s *Store) Load(name string, dst any) (docstore.Result, error) {
	path, err := s.Path(name)
	if err != nil {
		return docstore.Result{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return docstore.Result{State: docstore.StateMissing}, nil
		}
		return docstore.Result{}, fmt.Errorf("read %s: %w", name, err)
	}

	if derr := decodeStrict(data, dst); derr != nil {
		backup, qerr := s.quarantine(name, path)
		if qerr != nil {
			return docstore.Result{}, fmt.Errorf("quarantine %s after decode error (%v): %w", name, derr, qerr)
		}
		s.logger.Warn("quarantined unreadable document",
			zap.String("document", name),
			zap.String("backup", backup),
			zap.Error(derr),
		)
		s.metrics.Quarantined(name)
		return docstore.Result{State: docstore.StateRecovered, BackupPath: backup}, nil
	}
	return docstore.Result{State: docstore.StateLoaded}, nil
}

// quarantine moves the file at path to _corrupted/<name>.<timestamp>.bak.
func (s *Store) quarantine(name, path string) (string, error) {
	ts := s.clk.Now().UTC().Format(backupTimeLayout)
	backup := filepath.Join(s.root, CorruptedDir, filepath.FromSlash(name)+"."+ts+".bak")
	if err := os.MkdirAll(filepath.Dir(backup), 0o700); err != nil {
		return "", err
	}
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}

func decodeStrict(data []byte, dst any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return errors.New("empty document")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after document")
	}
	return nil
}

func writeAtomic(dir, path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk where the platform supports it.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
