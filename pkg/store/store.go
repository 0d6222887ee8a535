// Package store persists normalized shelter records keyed by their external id.
//
// Saves are per-record: each SaveAnimal call runs in its own transaction and
// reports failure through SaveResult instead of aborting the caller's batch.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/shelter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ErrNotFound is returned by the read helpers for unknown ids.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidRecord is returned for records that cannot be keyed.
	ErrInvalidRecord = errors.New("invalid record")
)

var (
	recordsSavedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_records_saved_total",
		Help: "Total records saved by entity and operation",
	}, []string{"entity", "op"})

	recordsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shelter_records_failed_total",
		Help: "Total records that failed to save by entity",
	}, []string{"entity"})
)

// Op is the write a save performed.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	// OpSkipped is used for organizations that already exist.
	OpSkipped Op = "skipped"
)

// SaveResult is the outcome of saving one animal: the stored entity and the
// write performed, or the failure reason.
type SaveResult struct {
	Animal shelter.Animal
	Op     Op
	Err    error
}

// OK reports whether the save succeeded.
func (r SaveResult) OK() bool {
	return r.Err == nil
}

// Store is the persistence contract used by the collector.
type Store interface {
	// CreateSchema creates missing tables. Safe to call on every start.
	CreateSchema(ctx context.Context) error

	// SaveAnimal inserts a new animal or refreshes the mutable subset of an
	// existing one.
	SaveAnimal(ctx context.Context, a shelter.Animal) SaveResult

	// SaveOrganization inserts o unless its id is already stored.
	SaveOrganization(ctx context.Context, o shelter.Organization) (Op, error)

	GetAnimal(ctx context.Context, externalID string) (shelter.Animal, error)
	CountAnimals(ctx context.Context) (int, error)
	GetOrganization(ctx context.Context, externalID string) (shelter.Organization, error)

	Close()
}

func validateKey(entity, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s has empty external id", ErrInvalidRecord, entity)
	}
	return nil
}

func observe(entity string, op Op, err error) {
	if err != nil {
		recordsFailedTotal.WithLabelValues(entity).Inc()
		return
	}
	recordsSavedTotal.WithLabelValues(entity, string(op)).Inc()
}
