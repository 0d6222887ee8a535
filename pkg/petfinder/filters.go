package petfinder

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// MaxLimit is the largest page size the listing endpoint accepts.
const MaxLimit = 100

// MaxDistance is the largest search radius (miles) the API accepts.
const MaxDistance = 500

// Filters are the recognised options of the animal listing endpoint.
// Zero values are omitted from the query.
type Filters struct {
	Type     string // species: dog, cat, bird, ...
	Breed    string
	Size     string // small, medium, large, xlarge
	Gender   string // male, female, unknown
	Age      string // baby, young, adult, senior
	Location string // postal code or "city, state"
	Distance int    // miles from Location
	Status   string // adoptable, adopted, found
	Page     int
	Limit    int // defaults to MaxLimit
}

// WithPage returns a copy of f requesting the given page.
func (f Filters) WithPage(page int) Filters {
	f.Page = page
	return f
}

// Validate checks ranges of numeric filters.
func (f Filters) Validate() error {
	if f.Limit < 0 || f.Limit > MaxLimit {
		return fmt.Errorf("%w: limit must be between 1 and %d (got %d)", ErrInvalidFilter, MaxLimit, f.Limit)
	}
	if f.Distance < 0 || f.Distance > MaxDistance {
		return fmt.Errorf("%w: distance must be between 1 and %d (got %d)", ErrInvalidFilter, MaxDistance, f.Distance)
	}
	if f.Page < 0 {
		return fmt.Errorf("%w: page must be positive (got %d)", ErrInvalidFilter, f.Page)
	}
	if f.Distance > 0 && strings.TrimSpace(f.Location) == "" {
		return fmt.Errorf("%w: distance requires location", ErrInvalidFilter)
	}
	return nil
}

// Query encodes the filters as listing query parameters. Limit defaults to MaxLimit.
func (f Filters) Query() url.Values {
	q := url.Values{}
	setString(q, "type", f.Type)
	setString(q, "breed", f.Breed)
	setString(q, "size", f.Size)
	setString(q, "gender", f.Gender)
	setString(q, "age", f.Age)
	setString(q, "location", f.Location)
	setString(q, "status", f.Status)
	if f.Distance > 0 {
		q.Set("distance", strconv.Itoa(f.Distance))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = MaxLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	return q
}

// String renders the non-empty filters for logging.
func (f Filters) String() string {
	q := f.Query()
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+q.Get(k))
	}
	return strings.Join(parts, " ")
}

// ParseFilters builds Filters from loosely typed key/value pairs (CLI or config
// input). "species" is accepted as an alias of "type". Keys are matched
// case-insensitively; unknown keys and keys given twice are rejected.
func ParseFilters(values map[string]string) (Filters, error) {
	var f Filters
	seen := make(map[string]string, len(values))
	for key, raw := range values {
		v := strings.TrimSpace(raw)
		name := strings.ToLower(strings.TrimSpace(key))
		canonical := name
		if canonical == "species" {
			canonical = "type"
		}
		if prev, ok := seen[canonical]; ok {
			return Filters{}, fmt.Errorf("%w: %q and %q set the same filter", ErrInvalidFilter, prev, key)
		}
		seen[canonical] = key

		switch name {
		case "type", "species":
			f.Type = v
		case "breed":
			f.Breed = v
		case "size":
			f.Size = v
		case "gender":
			f.Gender = v
		case "age":
			f.Age = v
		case "location":
			f.Location = v
		case "status":
			f.Status = v
		case "distance", "page", "limit":
			n, err := strconv.Atoi(v)
			if err != nil {
				return Filters{}, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidFilter, key, raw)
			}
			switch name {
			case "distance":
				f.Distance = n
			case "page":
				f.Page = n
			default:
				f.Limit = n
			}
		default:
			return Filters{}, fmt.Errorf("%w: %q", ErrUnknownFilter, key)
		}
	}
	if err := f.Validate(); err != nil {
		return Filters{}, err
	}
	return f, nil
}

// OrganizationFilters are the options of the organizations endpoint.
type OrganizationFilters struct {
	Name     string
	Location string
	Distance int
	State    string
	Country  string
	Limit    int
}

// Query encodes the organization filters. Limit defaults to MaxLimit.
func (f OrganizationFilters) Query() url.Values {
	q := url.Values{}
	setString(q, "name", f.Name)
	setString(q, "location", f.Location)
	setString(q, "state", f.State)
	setString(q, "country", f.Country)
	if f.Distance > 0 {
		q.Set("distance", strconv.Itoa(f.Distance))
	}
	limit := f.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}
	q.Set("limit", strconv.Itoa(limit))
	return q
}

func setString(q url.Values, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		q.Set(key, v)
	}
}
