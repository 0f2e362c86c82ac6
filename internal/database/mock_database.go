package database

import (
	"encoding/json"
	"sync"

	"github.com/catering/dashboard/internal/results"
)

// MockDatabase keeps the latest response in memory, serialized the same way
// the Postgres store does so callers get an independent copy back.
type MockDatabase struct {
	mu     sync.Mutex
	latest []byte
	saves  int
}

func NewMockDatabase() *MockDatabase {
	return &MockDatabase{}
}

func (db *MockDatabase) SaveLatest(resp *results.RunResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.latest = data
	db.saves++
	return nil
}

func (db *MockDatabase) LoadLatest() (*results.RunResponse, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.latest == nil {
		return nil, nil
	}
	var resp results.RunResponse
	if err := json.Unmarshal(db.latest, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Saves reports how many times SaveLatest succeeded.
func (db *MockDatabase) Saves() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.saves
}

func (db *MockDatabase) Close() error {
	return nil
}
