package store

import (
	"context"
	"sync"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/shelter"
)

// Memory is an in-process Store with the same create/update semantics as
// Postgres.
type Memory struct {
	mu      sync.Mutex
	animals map[string]shelter.Animal
	orgs    map[string]shelter.Organization
	nextID  int64
	now     func() time.Time

	// FailOn, when set, is consulted before every animal write; a non-nil
	// error aborts that save.
	FailOn func(a shelter.Animal) error
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		animals: make(map[string]shelter.Animal),
		orgs:    make(map[string]shelter.Organization),
		now:     time.Now,
	}
}

// SetClock replaces the time source (for testing).
func (m *Memory) SetClock(now func() time.Time) {
	m.now = now
}

// CreateSchema is a no-op.
func (m *Memory) CreateSchema(ctx context.Context) error {
	return nil
}

// SaveAnimal implements Store.
func (m *Memory) SaveAnimal(ctx context.Context, a shelter.Animal) (res SaveResult) {
	defer func() { observe("animal", res.Op, res.Err) }()

	if err := validateKey("animal", a.ExternalID); err != nil {
		return SaveResult{Err: err}
	}
	if m.FailOn != nil {
		if err := m.FailOn(a); err != nil {
			return SaveResult{Err: err}
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now().UTC()
	if existing, ok := m.animals[a.ExternalID]; ok {
		existing.Refresh(a, now)
		m.animals[a.ExternalID] = existing
		return SaveResult{Animal: existing, Op: OpUpdated}
	}

	m.nextID++
	a.ID = m.nextID
	a.Stamp(now)
	m.animals[a.ExternalID] = a
	return SaveResult{Animal: a, Op: OpCreated}
}

// SaveOrganization implements Store.
func (m *Memory) SaveOrganization(ctx context.Context, o shelter.Organization) (op Op, err error) {
	defer func() { observe("organization", op, err) }()

	if err := validateKey("organization", o.ExternalID); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orgs[o.ExternalID]; ok {
		return OpSkipped, nil
	}
	o.CollectedAt = m.now().UTC()
	m.orgs[o.ExternalID] = o
	return OpCreated, nil
}

// GetAnimal implements Store.
func (m *Memory) GetAnimal(ctx context.Context, externalID string) (shelter.Animal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.animals[externalID]
	if !ok {
		return shelter.Animal{}, ErrNotFound
	}
	return a, nil
}

// CountAnimals implements Store.
func (m *Memory) CountAnimals(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.animals), nil
}

// GetOrganization implements Store.
func (m *Memory) GetOrganization(ctx context.Context, externalID string) (shelter.Organization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orgs[externalID]
	if !ok {
		return shelter.Organization{}, ErrNotFound
	}
	return o, nil
}

// Close is a no-op.
func (m *Memory) Close() {}
