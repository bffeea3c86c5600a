package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// Store persists the ledger to a single JSON file. The snapshot is an
// ordered array so the first-seen order survives every round trip.
type Store struct {
	path  string
	appFs afero.Fs
}

type option func(*Store)

func WithAppFs(fs afero.Fs) option {
	return func(s *Store) { s.appFs = fs }
}

func NewStore(path string, opts ...option) Store {
	s := Store{
		path:  path,
		appFs: afero.NewOsFs(),
	}

	for _, opt := range opts {
		opt(&s)
	}

	return s
}

// Load reads the persisted ledger. A missing file yields an empty ledger;
// an unreadable or corrupt file is an error left to the caller.
func (s Store) Load() (*Ledger, error) {
	b, err := afero.ReadFile(s.appFs, s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, xerrors.Errorf("unable to read ledger %s: %w", s.path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, xerrors.Errorf("unable to unmarshal ledger %s: %w", s.path, err)
	}
	return FromEntries(entries), nil
}

// Save writes the snapshot to a temp file next to the target and renames it
// over, so a failed save leaves the previous ledger intact.
func (s Store) Save(l *Ledger) error {
	b, err := json.MarshalIndent(l.Snapshot(), "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to marshal ledger: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := s.appFs.MkdirAll(dir, 0755); err != nil {
		return xerrors.Errorf("mkdir error: %w", err)
	}

	tmp, err := afero.TempFile(s.appFs, dir, "notified-*.json")
	if err != nil {
		return xerrors.Errorf("unable to create a temp ledger: %w", err)
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return xerrors.Errorf("unable to write a temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return xerrors.Errorf("close error: %w", err)
	}

	if err := s.appFs.Rename(tmp.Name(), s.path); err != nil {
		return xerrors.Errorf("unable to replace ledger %s: %w", s.path, err)
	}
	return nil
}
