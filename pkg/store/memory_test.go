package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/internal/testutil"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/normalize"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/shelter"
)

func mustAnimal(t *testing.T, id int, name string) shelter.Animal {
	t.Helper()
	a, err := normalize.Animal(testutil.AnimalJSON(id, name))
	if err != nil {
		t.Fatalf("normalize.Animal() error = %v", err)
	}
	return a
}

func TestMemory_SaveTwiceKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := first
	m.SetClock(func() time.Time { return clock })

	res := m.SaveAnimal(ctx, mustAnimal(t, 1, "Rex"))
	if !res.OK() || res.Op != OpCreated {
		t.Fatalf("first save = %+v", res)
	}

	clock = first.Add(time.Hour)
	again := mustAnimal(t, 1, "Renamed")
	status, desc := "adopted", "Found a home."
	again.Status, again.Description = &status, &desc

	res = m.SaveAnimal(ctx, again)
	if !res.OK() || res.Op != OpUpdated {
		t.Fatalf("second save = %+v", res)
	}

	n, _ := m.CountAnimals(ctx)
	if n != 1 {
		t.Fatalf("CountAnimals() = %d, want 1", n)
	}

	got, err := m.GetAnimal(ctx, "1")
	if err != nil {
		t.Fatalf("GetAnimal() error = %v", err)
	}
	if *got.Name != "Rex" {
		t.Errorf("Name = %q, want original Rex", *got.Name)
	}
	if *got.Status != "adopted" || *got.Description != "Found a home." {
		t.Errorf("mutable fields not refreshed: status=%q description=%q", *got.Status, *got.Description)
	}
	if !got.CollectedAt.Equal(first) {
		t.Errorf("CollectedAt = %v, want %v", got.CollectedAt, first)
	}
	if !got.LastUpdated.Equal(clock) {
		t.Errorf("LastUpdated = %v, want %v", got.LastUpdated, clock)
	}
}

func TestMemory_NDistinctIDs(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	const n = 25
	for round := 0; round < 2; round++ {
		for i := 1; i <= n; i++ {
			if res := m.SaveAnimal(ctx, mustAnimal(t, i, fmt.Sprintf("Pet %d", i))); !res.OK() {
				t.Fatalf("round %d save %d: %v", round, i, res.Err)
			}
		}
		if got, _ := m.CountAnimals(ctx); got != n {
			t.Fatalf("round %d: CountAnimals() = %d, want %d", round, got, n)
		}
	}
}

func TestMemory_FailureIsolated(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	boom := errors.New("constraint violation")
	m.FailOn = func(a shelter.Animal) error {
		if a.ExternalID == "2" {
			return boom
		}
		return nil
	}

	var failed int
	for i := 1; i <= 3; i++ {
		if res := m.SaveAnimal(ctx, mustAnimal(t, i, "x")); !res.OK() {
			failed++
			if !errors.Is(res.Err, boom) {
				t.Errorf("Err = %v, want %v", res.Err, boom)
			}
		}
	}

	if failed != 1 {
		t.Errorf("failed = %d, want 1", failed)
	}
	if n, _ := m.CountAnimals(ctx); n != 2 {
		t.Errorf("CountAnimals() = %d, want 2", n)
	}
	if _, err := m.GetAnimal(ctx, "2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAnimal(2) error = %v, want ErrNotFound", err)
	}
}

func TestMemory_EmptyExternalID(t *testing.T) {
	res := NewMemory().SaveAnimal(context.Background(), shelter.Animal{})
	if !errors.Is(res.Err, ErrInvalidRecord) {
		t.Errorf("Err = %v, want ErrInvalidRecord", res.Err)
	}
}

func TestMemory_OrganizationInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	org, err := normalize.Organization(testutil.OrganizationJSON("CA123", "Happy Tails"))
	if err != nil {
		t.Fatalf("normalize.Organization() error = %v", err)
	}

	op, err := m.SaveOrganization(ctx, org)
	if err != nil || op != OpCreated {
		t.Fatalf("first save = %q, %v", op, err)
	}

	renamed := org
	name := "Other"
	renamed.Name = &name
	op, err = m.SaveOrganization(ctx, renamed)
	if err != nil || op != OpSkipped {
		t.Fatalf("second save = %q, %v", op, err)
	}

	got, err := m.GetOrganization(ctx, "CA123")
	if err != nil {
		t.Fatalf("GetOrganization() error = %v", err)
	}
	if *got.Name != "Happy Tails" {
		t.Errorf("Name = %q, want original", *got.Name)
	}
}
