package database

import (
	"github.com/catering/dashboard/internal/results"
)

// Store keeps the latest RunResponse across restarts. It holds exactly one
// response: saving replaces whatever was there.
type Store interface {
	SaveLatest(resp *results.RunResponse) error
	// LoadLatest returns nil, nil when nothing has been saved yet.
	LoadLatest() (*results.RunResponse, error)
	Close() error
}
