package store

import (
	"os"
	"path/filepath"
	"strings"
)

// Store is the local state directory (config dir by default).
type Store struct {
	Dir string
}

// Open returns the store rooted at the config dir.
func Open() (Store, error) {
	dir, err := ConfigDir()
	if err != nil {
		return Store{}, err
	}
	return Store{Dir: dir}, nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) path(name string) string {
	return filepath.Join(filepath.Clean(s.Dir), name)
}

// LogPath is where the TUI writes its log (stdout belongs to the terminal UI).
func (s Store) LogPath() string {
	if strings.TrimSpace(s.Dir) == "" {
		return ""
	}
	return s.path("roomboard.log")
}
