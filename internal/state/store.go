// Package state records build history in SQLite.
// Every reported pass, once or watch, becomes one row; the history command
// reads them back.
package state

import (
	"context"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/leapbundle/pkg/core"
)

// DirName is the per-project state directory.
const DirName = ".leapbundle"

// FileName is the history database inside DirName.
const FileName = "state.db"

// DefaultPath returns the history database path for a project.
func DefaultPath(projectRoot string) string {
	return filepath.Join(projectRoot, DirName, FileName)
}

// Pass is one recorded build pass.
type Pass struct {
	ID        string        `json:"id"`
	Target    string        `json:"target"`
	Mode      core.ExecMode `json:"mode"`
	Outcome   core.Outcome  `json:"outcome"`
	Errors    []string      `json:"errors"`
	Warnings  []string      `json:"warnings"`
	Duration  time.Duration `json:"duration_ns"`
	StartedAt time.Time     `json:"started_at"`
}

// Store persists build history.
type Store interface {
	Open(path string) error
	Close() error
	Migrate() error

	RecordPass(ctx context.Context, target string, mode core.ExecMode, res *core.Result) (*Pass, error)
	// ListPasses returns the most recent passes first. An empty target
	// lists every target; limit <= 0 means no limit.
	ListPasses(ctx context.Context, target string, limit int) ([]*Pass, error)
}

var _ Store = (*SQLiteStore)(nil)
