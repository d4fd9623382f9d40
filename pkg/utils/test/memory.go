package testutils

import (
	"context"
	"errors"

	"github.com/mnemohq/mnemo/pkg/memory"
)

// MockMemoryDriver is a test memory driver that records calls and returns
// configurable results.
type MockMemoryDriver struct {
	// SearchResults is returned by Search for any query.
	SearchResults []memory.Result

	// SearchQueries accumulates every query passed to Search.
	SearchQueries []string

	// StoredRecords accumulates all records passed to Store.
	StoredRecords []memory.Record

	// Links maps memory id to the related ids passed to Link.
	Links map[string][]string

	// ProjectID is returned by EnsureProject.
	ProjectID string

	// Duplicate is returned by CheckDuplicate.
	Duplicate bool

	// FailSearch causes Search to return an error.
	FailSearch bool

	// FailStore causes Store to return an error.
	FailStore bool

	// FailEnsure causes EnsureProject to return an error.
	FailEnsure bool

	// FailDuplicate causes CheckDuplicate to return an error.
	FailDuplicate bool

	// FailLink causes Link to return an error.
	FailLink bool
}

// NewMockMemoryDriver creates a new mock memory driver.
func NewMockMemoryDriver() *MockMemoryDriver {
	return &MockMemoryDriver{
		ProjectID: "project-1",
		Links:     make(map[string][]string),
	}
}

func (m *MockMemoryDriver) Search(_ context.Context, query string, limit int, _ string) ([]memory.Result, error) {
	if m.FailSearch {
		return nil, errors.New("search failed")
	}
	m.SearchQueries = append(m.SearchQueries, query)
	if limit > 0 && limit < len(m.SearchResults) {
		return m.SearchResults[:limit], nil
	}
	return m.SearchResults, nil
}

func (m *MockMemoryDriver) EnsureProject(_ context.Context, _, _ string) (string, error) {
	if m.FailEnsure {
		return "", errors.New("ensure project failed")
	}
	return m.ProjectID, nil
}

func (m *MockMemoryDriver) Store(_ context.Context, rec memory.Record) (string, error) {
	if m.FailStore {
		return "", errors.New("store failed")
	}
	m.StoredRecords = append(m.StoredRecords, rec)
	return "mem-" + rec.Title, nil
}

func (m *MockMemoryDriver) CheckDuplicate(_ context.Context, _ string, _ float64, _ string) (bool, error) {
	if m.FailDuplicate {
		return false, errors.New("duplicate check failed")
	}
	return m.Duplicate, nil
}

func (m *MockMemoryDriver) Link(_ context.Context, memoryID string, relatedIDs []string) error {
	if m.FailLink {
		return errors.New("link failed")
	}
	m.Links[memoryID] = append(m.Links[memoryID], relatedIDs...)
	return nil
}

func (m *MockMemoryDriver) Close() error {
	return nil
}

var _ memory.Driver = (*MockMemoryDriver)(nil)
