package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/bibkit/pica/internal/config"
	"github.com/bibkit/pica/internal/store"
)

// openOutput opens the destination file, or stdout for "" and "-".
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

// openRunStore opens the result store when a database URL is configured.
// The returned store is nil when persistence is off; the cleanup func is
// always safe to call.
func openRunStore(cfg *config.Config) (*store.Store, func(), error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, func() {}, nil
	}
	db, err := store.Open(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	s, err := store.New(db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return s, func() { db.Close() }, nil
}
