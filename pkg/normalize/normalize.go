// Package normalize maps raw Petfinder payloads onto shelter records.
//
// Nested sections (breeds, colors, attributes, environment, contact address)
// are optional: a missing or null section yields nil fields for that
// section instead of an error. The raw payload is kept verbatim on the record.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/shelter"
)

var (
	// ErrMissingID is returned when a payload has no usable id.
	ErrMissingID = errors.New("payload has no id")

	// ErrInvalidTimestamp is returned when a timestamp field cannot be parsed.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
)

// externalID accepts ids encoded as JSON numbers or strings.
type externalID string

func (id *externalID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = externalID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = externalID(canonicalNumber(n))
	return nil
}

// canonicalNumber renders whole numbers without fraction or exponent so that
// 4, 4.0 and 4e0 name the same record.
func canonicalNumber(n json.Number) string {
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return n.String()
	}
	return strconv.FormatInt(int64(f), 10)
}

type address struct {
	Address1 *string `json:"address1"`
	Address2 *string `json:"address2"`
	City     *string `json:"city"`
	State    *string `json:"state"`
	Postcode *string `json:"postcode"`
	Country  *string `json:"country"`
}

type animalPayload struct {
	ID             externalID `json:"id"`
	OrganizationID *string    `json:"organization_id"`
	Name           *string    `json:"name"`
	Species        *string    `json:"species"`
	Age            *string    `json:"age"`
	Gender         *string    `json:"gender"`
	Size           *string    `json:"size"`
	Coat           *string    `json:"coat"`
	Description    *string    `json:"description"`
	Status         *string    `json:"status"`
	Distance       *float64   `json:"distance"`

	Breeds *struct {
		Primary   *string `json:"primary"`
		Secondary *string `json:"secondary"`
		Mixed     *bool   `json:"mixed"`
		Unknown   *bool   `json:"unknown"`
	} `json:"breeds"`

	Colors *struct {
		Primary   *string `json:"primary"`
		Secondary *string `json:"secondary"`
		Tertiary  *string `json:"tertiary"`
	} `json:"colors"`

	Attributes *struct {
		SpayedNeutered *bool `json:"spayed_neutered"`
		HouseTrained   *bool `json:"house_trained"`
		Declawed       *bool `json:"declawed"`
		SpecialNeeds   *bool `json:"special_needs"`
		ShotsCurrent   *bool `json:"shots_current"`
	} `json:"attributes"`

	Environment *struct {
		Children *bool `json:"children"`
		Dogs     *bool `json:"dogs"`
		Cats     *bool `json:"cats"`
	} `json:"environment"`

	Photos []shelter.Photo `json:"photos"`
	Videos []shelter.Video `json:"videos"`

	Contact *struct {
		Address *address `json:"address"`
	} `json:"contact"`

	PublishedAt     *string `json:"published_at"`
	StatusChangedAt *string `json:"status_changed_at"`
}

// Animal maps one listing payload to an Animal. CollectedAt and LastUpdated
// are left zero; the store sets them.
func Animal(raw json.RawMessage) (shelter.Animal, error) {
	var p animalPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return shelter.Animal{}, fmt.Errorf("decode animal: %w", err)
	}
	if p.ID == "" {
		return shelter.Animal{}, ErrMissingID
	}

	a := shelter.Animal{
		ExternalID:     string(p.ID),
		OrganizationID: p.OrganizationID,
		Name:           p.Name,
		Species:        p.Species,
		Age:            p.Age,
		Gender:         p.Gender,
		Size:           p.Size,
		Coat:           p.Coat,
		Description:    p.Description,
		Status:         p.Status,
		Distance:       p.Distance,
		Photos:         nonNil(p.Photos),
		Videos:         nonNil(p.Videos),
		Raw:            append(json.RawMessage(nil), raw...),
	}

	if b := p.Breeds; b != nil {
		a.BreedPrimary, a.BreedSecondary = b.Primary, b.Secondary
		a.BreedMixed, a.BreedUnknown = b.Mixed, b.Unknown
	}
	if c := p.Colors; c != nil {
		a.ColorPrimary, a.ColorSecondary, a.ColorTertiary = c.Primary, c.Secondary, c.Tertiary
	}
	if at := p.Attributes; at != nil {
		a.SpayedNeutered = at.SpayedNeutered
		a.HouseTrained = at.HouseTrained
		a.Declawed = at.Declawed
		a.SpecialNeeds = at.SpecialNeeds
		a.ShotsCurrent = at.ShotsCurrent
	}
	if e := p.Environment; e != nil {
		a.GoodWithChildren, a.GoodWithDogs, a.GoodWithCats = e.Children, e.Dogs, e.Cats
	}
	if p.Contact != nil && p.Contact.Address != nil {
		addr := p.Contact.Address
		a.City, a.State, a.Postcode, a.Country = addr.City, addr.State, addr.Postcode, addr.Country
	}

	var err error
	if a.PublishedAt, err = Timestamp(p.PublishedAt); err != nil {
		return shelter.Animal{}, fmt.Errorf("published_at: %w", err)
	}
	if a.StatusChangedAt, err = Timestamp(p.StatusChangedAt); err != nil {
		return shelter.Animal{}, fmt.Errorf("status_changed_at: %w", err)
	}
	return a, nil
}

type organizationPayload struct {
	ID               externalID `json:"id"`
	Name             *string    `json:"name"`
	Email            *string    `json:"email"`
	Phone            *string    `json:"phone"`
	Website          *string    `json:"website"`
	Address          *address   `json:"address"`
	MissionStatement *string    `json:"mission_statement"`
	Adoption         *struct {
		Policy *string `json:"policy"`
		URL    *string `json:"url"`
	} `json:"adoption"`
}

// Organization maps one organization payload to an Organization.
func Organization(raw json.RawMessage) (shelter.Organization, error) {
	var p organizationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return shelter.Organization{}, fmt.Errorf("decode organization: %w", err)
	}
	if p.ID == "" {
		return shelter.Organization{}, ErrMissingID
	}

	o := shelter.Organization{
		ExternalID:       string(p.ID),
		Name:             p.Name,
		Email:            p.Email,
		Phone:            p.Phone,
		Website:          p.Website,
		MissionStatement: p.MissionStatement,
		Raw:              append(json.RawMessage(nil), raw...),
	}
	if addr := p.Address; addr != nil {
		o.Address1, o.Address2 = addr.Address1, addr.Address2
		o.City, o.State, o.Postcode, o.Country = addr.City, addr.State, addr.Postcode, addr.Country
	}
	if p.Adoption != nil {
		o.AdoptionPolicy, o.AdoptionURL = p.Adoption.Policy, p.Adoption.URL
	}
	return o, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
