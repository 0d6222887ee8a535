// Package shelter defines the normalized records persisted by the collector.
package shelter

import (
	"encoding/json"
	"time"
)

// Photo is one listing photo in the sizes the API publishes.
type Photo struct {
	Small  string `json:"small,omitempty"`
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
	Full   string `json:"full,omitempty"`
}

// Video is one embedded listing video.
type Video struct {
	Embed string `json:"embed,omitempty"`
}

// Animal is a normalized adoption listing. Optional fields are pointers; nil
// means the source carried no value.
type Animal struct {
	ID         int64
	ExternalID string

	OrganizationID *string
	Name           *string
	Species        *string

	BreedPrimary   *string
	BreedSecondary *string
	BreedMixed     *bool
	BreedUnknown   *bool

	Age    *string
	Gender *string
	Size   *string
	Coat   *string

	ColorPrimary   *string
	ColorSecondary *string
	ColorTertiary  *string

	SpayedNeutered *bool
	HouseTrained   *bool
	Declawed       *bool
	SpecialNeeds   *bool
	ShotsCurrent   *bool

	GoodWithChildren *bool
	GoodWithDogs     *bool
	GoodWithCats     *bool

	Description *string
	Photos      []Photo
	Videos      []Video

	City     *string
	State    *string
	Postcode *string
	Country  *string

	Status   *string
	Distance *float64

	PublishedAt     *time.Time
	StatusChangedAt *time.Time

	// CollectedAt is set once at first save.
	CollectedAt time.Time
	// LastUpdated is refreshed on every save.
	LastUpdated time.Time

	Raw json.RawMessage
}

// Refresh copies the mutable subset of next into a: status, description,
// photos, status change time and the raw payload. Every other field keeps its
// first-ingested value. StatusChangedAt is only replaced when next carries one.
func (a *Animal) Refresh(next Animal, now time.Time) {
	a.Status = next.Status
	a.Description = next.Description
	a.Photos = next.Photos
	if next.StatusChangedAt != nil {
		a.StatusChangedAt = next.StatusChangedAt
	}
	a.Raw = next.Raw
	a.LastUpdated = now
}

// Stamp prepares a for its first save.
func (a *Animal) Stamp(now time.Time) {
	a.CollectedAt = now
	a.LastUpdated = now
}

// Organization is a normalized shelter or rescue organization.
type Organization struct {
	ExternalID string

	Name    *string
	Email   *string
	Phone   *string
	Website *string

	Address1 *string
	Address2 *string
	City     *string
	State    *string
	Postcode *string
	Country  *string

	MissionStatement *string
	AdoptionPolicy   *string
	AdoptionURL      *string

	CollectedAt time.Time

	Raw json.RawMessage
}
