package normalize

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/internal/testutil"
)

func TestAnimal_FullPayload(t *testing.T) {
	a, err := Animal(testutil.AnimalJSON(7, "Biscuit"))
	if err != nil {
		t.Fatalf("Animal() error = %v", err)
	}

	if a.ExternalID != "7" {
		t.Errorf("ExternalID = %q, want 7", a.ExternalID)
	}
	if a.Name == nil || *a.Name != "Biscuit" {
		t.Errorf("Name = %v", a.Name)
	}
	if a.BreedPrimary == nil || *a.BreedPrimary != "Labrador Retriever" {
		t.Errorf("BreedPrimary = %v", a.BreedPrimary)
	}
	if a.BreedSecondary != nil {
		t.Errorf("BreedSecondary = %v, want nil", *a.BreedSecondary)
	}
	if a.BreedMixed == nil || !*a.BreedMixed {
		t.Error("BreedMixed should be true")
	}
	if a.SpayedNeutered == nil || !*a.SpayedNeutered {
		t.Error("SpayedNeutered should be true")
	}
	if a.Declawed != nil {
		t.Error("Declawed should be nil for a null source value")
	}
	if a.GoodWithCats != nil || a.GoodWithDogs == nil || !*a.GoodWithDogs {
		t.Errorf("environment flags = dogs:%v cats:%v", a.GoodWithDogs, a.GoodWithCats)
	}
	if a.City == nil || *a.City != "Beverly Hills" || a.Postcode == nil || *a.Postcode != "90210" {
		t.Errorf("address = %v %v", a.City, a.Postcode)
	}
	if len(a.Photos) != 1 || a.Photos[0].Full != "https://photos.example/7.jpg" {
		t.Errorf("Photos = %+v", a.Photos)
	}
	if a.Videos == nil || len(a.Videos) != 0 {
		t.Errorf("Videos = %+v, want empty non-nil", a.Videos)
	}
	if a.Distance == nil || *a.Distance != 4.2 {
		t.Errorf("Distance = %v", a.Distance)
	}
	if a.OrganizationID == nil || *a.OrganizationID != "CA123" {
		t.Errorf("OrganizationID = %v", a.OrganizationID)
	}

	wantPublished := time.Date(2023, 4, 30, 8, 15, 0, 0, time.UTC)
	if a.PublishedAt == nil || !a.PublishedAt.Equal(wantPublished) {
		t.Errorf("PublishedAt = %v, want %v", a.PublishedAt, wantPublished)
	}
	if !json.Valid(a.Raw) {
		t.Error("Raw should hold the verbatim payload")
	}
}

func TestAnimal_MissingSections(t *testing.T) {
	a, err := Animal(json.RawMessage(`{"id": 12, "name": "Ghost", "contact": null}`))
	if err != nil {
		t.Fatalf("Animal() error = %v", err)
	}

	flags := map[string]*bool{
		"spayed_neutered": a.SpayedNeutered,
		"house_trained":   a.HouseTrained,
		"declawed":        a.Declawed,
		"special_needs":   a.SpecialNeeds,
		"shots_current":   a.ShotsCurrent,
		"children":        a.GoodWithChildren,
		"dogs":            a.GoodWithDogs,
		"cats":            a.GoodWithCats,
		"breed_mixed":     a.BreedMixed,
	}
	for name, v := range flags {
		if v != nil {
			t.Errorf("%s = %v, want nil", name, *v)
		}
	}
	if a.City != nil || a.ColorPrimary != nil || a.BreedPrimary != nil {
		t.Error("nested string fields should be nil")
	}
	if a.PublishedAt != nil || a.StatusChangedAt != nil {
		t.Error("missing timestamps should be nil")
	}
	if a.Photos == nil || a.Videos == nil {
		t.Error("missing media lists should be empty, not nil")
	}
}

func TestAnimal_StringID(t *testing.T) {
	a, err := Animal(json.RawMessage(`{"id": " 55 "}`))
	if err != nil {
		t.Fatalf("Animal() error = %v", err)
	}
	if a.ExternalID != "55" {
		t.Errorf("ExternalID = %q, want 55", a.ExternalID)
	}
}

func TestAnimal_NumericIDForms(t *testing.T) {
	tests := []struct {
		payload string
		want    string
	}{
		{`{"id": 4}`, "4"},
		{`{"id": 4.0}`, "4"},
		{`{"id": 4e0}`, "4"},
		{`{"id": 123456789}`, "123456789"},
		{`{"id": 4.5}`, "4.5"},
	}

	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			a, err := Animal(json.RawMessage(tt.payload))
			if err != nil {
				t.Fatalf("Animal() error = %v", err)
			}
			if a.ExternalID != tt.want {
				t.Errorf("ExternalID = %q, want %q", a.ExternalID, tt.want)
			}
		})
	}
}

func TestAnimal_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "missing id", payload: `{"name": "x"}`, wantErr: ErrMissingID},
		{name: "null id", payload: `{"id": null}`, wantErr: ErrMissingID},
		{name: "bad timestamp", payload: `{"id": 1, "published_at": "yesterday"}`, wantErr: ErrInvalidTimestamp},
		{name: "malformed json", payload: `{"id": `},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Animal(json.RawMessage(tt.payload))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTimestamp(t *testing.T) {
	ref := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{name: "zulu suffix", input: "2023-05-01T12:00:00Z", want: ref},
		{name: "explicit utc offset", input: "2023-05-01T12:00:00+00:00", want: ref},
		{name: "compact offset", input: "2023-05-01T14:00:00+0200", want: ref},
		{name: "fractional seconds", input: "2023-05-01T12:00:00.000Z", want: ref},
		{name: "no zone", input: "2023-05-01T12:00:00", want: ref},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.input
			got, err := Timestamp(&in)
			if err != nil {
				t.Fatalf("Timestamp(%q) error = %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Timestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
			if got.Location() != time.UTC {
				t.Errorf("location = %v, want UTC", got.Location())
			}
		})
	}
}

func TestTimestamp_Absent(t *testing.T) {
	got, err := Timestamp(nil)
	if err != nil || got != nil {
		t.Errorf("Timestamp(nil) = %v, %v; want nil, nil", got, err)
	}

	blank := "  "
	got, err = Timestamp(&blank)
	if err != nil || got != nil {
		t.Errorf("Timestamp(blank) = %v, %v; want nil, nil", got, err)
	}
}

func TestOrganization(t *testing.T) {
	o, err := Organization(testutil.OrganizationJSON("CO77", "Mile High Rescue"))
	if err != nil {
		t.Fatalf("Organization() error = %v", err)
	}
	if o.ExternalID != "CO77" {
		t.Errorf("ExternalID = %q", o.ExternalID)
	}
	if o.City == nil || *o.City != "Denver" {
		t.Errorf("City = %v", o.City)
	}
	if o.Address2 != nil {
		t.Errorf("Address2 = %v, want nil", *o.Address2)
	}
	if o.AdoptionURL == nil || *o.AdoptionURL != "https://example.org/adopt" {
		t.Errorf("AdoptionURL = %v", o.AdoptionURL)
	}

	o, err = Organization(json.RawMessage(`{"id": "X1"}`))
	if err != nil {
		t.Fatalf("Organization() minimal error = %v", err)
	}
	if o.Name != nil || o.City != nil || o.AdoptionPolicy != nil {
		t.Error("missing sections should yield nil fields")
	}
}
