package testutil

import (
	"encoding/json"
	"fmt"
)

// AnimalJSON returns a complete Petfinder animal payload.
func AnimalJSON(id int, name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %d,
		"organization_id": "CA123",
		"url": "https://www.petfinder.com/dog/%d",
		"type": "Dog",
		"species": "Dog",
		"breeds": {"primary": "Labrador Retriever", "secondary": null, "mixed": true, "unknown": false},
		"colors": {"primary": "Black", "secondary": null, "tertiary": null},
		"age": "Young",
		"gender": "Female",
		"size": "Large",
		"coat": "Short",
		"attributes": {"spayed_neutered": true, "house_trained": false, "declawed": null, "special_needs": false, "shots_current": true},
		"environment": {"children": true, "dogs": true, "cats": null},
		"name": %q,
		"description": "Friendly and playful.",
		"photos": [{"small": "https://photos.example/%d-s.jpg", "medium": "https://photos.example/%d-m.jpg", "large": "https://photos.example/%d-l.jpg", "full": "https://photos.example/%d.jpg"}],
		"videos": [],
		"status": "adoptable",
		"status_changed_at": "2023-05-01T12:00:00Z",
		"published_at": "2023-04-30T08:15:00+0000",
		"distance": 4.2,
		"contact": {"email": "adopt@example.org", "phone": null, "address": {"address1": null, "city": "Beverly Hills", "state": "CA", "postcode": "90210", "country": "US"}}
	}`, id, id, name, id, id, id, id))
}

// AnimalsRange returns n animal payloads with ids from, from+1, ...
func AnimalsRange(from, n int) []json.RawMessage {
	out := make([]json.RawMessage, 0, n)
	for i := 0; i < n; i++ {
		id := from + i
		out = append(out, AnimalJSON(id, fmt.Sprintf("Pet %d", id)))
	}
	return out
}

// OrganizationJSON returns a Petfinder organization payload.
func OrganizationJSON(id, name string) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"email": "info@example.org",
		"phone": "555-0100",
		"website": "https://example.org",
		"address": {"address1": "1 Main St", "address2": null, "city": "Denver", "state": "CO", "postcode": "80201", "country": "US"},
		"mission_statement": "Every pet deserves a home.",
		"adoption": {"policy": "Home visit required.", "url": "https://example.org/adopt"}
	}`, id, name))
}
