package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/annika-mcmullen/animal-shelter-insights/pkg/logging"
	"github.com/annika-mcmullen/animal-shelter-insights/pkg/shelter"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresConfig holds connection pool settings.
type PostgresConfig struct {
	// DSN is a postgres:// connection string.
	DSN string

	// MaxConns caps the pool size; the collector needs at most one.
	MaxConns int32

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}

// DefaultPostgresConfig returns pool defaults for the given DSN.
func DefaultPostgresConfig(dsn string) PostgresConfig {
	return PostgresConfig{
		DSN:            dsn,
		MaxConns:       2,
		ConnectTimeout: 5 * time.Second,
	}
}

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool   *pgxpool.Pool
	now    func() time.Time
	logger zerolog.Logger
}

// OpenPostgres connects to Postgres and verifies the connection.
func OpenPostgres(ctx context.Context, cfg PostgresConfig) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	return &Postgres{
		pool:   pool,
		now:    time.Now,
		logger: logging.NewLogger("store"),
	}, nil
}

// SetClock replaces the time source (for testing).
func (s *Postgres) SetClock(now func() time.Time) {
	s.now = now
}

// Close releases the pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// CreateSchema implements Store.
func (s *Postgres) CreateSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	s.logger.Info().Msg("Schema ready")
	return nil
}

// SaveAnimal implements Store. The row is locked while the update subset is
// applied; any failure rolls the transaction back.
func (s *Postgres) SaveAnimal(ctx context.Context, a shelter.Animal) (res SaveResult) {
	defer func() { observe("animal", res.Op, res.Err) }()

	if err := validateKey("animal", a.ExternalID); err != nil {
		return SaveResult{Err: err}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return SaveResult{Err: fmt.Errorf("begin: %w", err)}
	}
	defer func() {
		if res.Err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := s.now().UTC()
	existing, err := scanAnimal(tx.QueryRow(ctx, selectAnimal+` WHERE external_id = $1 FOR UPDATE`, a.ExternalID))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		a.Stamp(now)
		if err := insertAnimal(ctx, tx, &a); err != nil {
			return SaveResult{Err: fmt.Errorf("insert animal %s: %w", a.ExternalID, err)}
		}
		res = SaveResult{Animal: a, Op: OpCreated}
	case err != nil:
		return SaveResult{Err: fmt.Errorf("lookup animal %s: %w", a.ExternalID, err)}
	default:
		existing.Refresh(a, now)
		if err := updateAnimal(ctx, tx, existing); err != nil {
			return SaveResult{Err: fmt.Errorf("update animal %s: %w", a.ExternalID, err)}
		}
		res = SaveResult{Animal: existing, Op: OpUpdated}
	}

	if err := tx.Commit(ctx); err != nil {
		return SaveResult{Err: fmt.Errorf("commit animal %s: %w", a.ExternalID, err)}
	}

	s.logger.Debug().
		Str("external_id", a.ExternalID).
		Str("op", string(res.Op)).
		Msg("Animal saved")
	return res
}

// SaveOrganization implements Store.
func (s *Postgres) SaveOrganization(ctx context.Context, o shelter.Organization) (op Op, err error) {
	defer func() { observe("organization", op, err) }()

	if err := validateKey("organization", o.ExternalID); err != nil {
		return "", err
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO organizations (
			external_id, name, email, phone, website,
			address1, address2, city, state, postcode, country,
			mission_statement, adoption_policy, adoption_url,
			collected_at, raw_data
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
		ON CONFLICT (external_id) DO NOTHING`,
		o.ExternalID, o.Name, o.Email, o.Phone, o.Website,
		o.Address1, o.Address2, o.City, o.State, o.Postcode, o.Country,
		o.MissionStatement, o.AdoptionPolicy, o.AdoptionURL,
		s.now().UTC(), rawJSON(o.Raw),
	)
	if err != nil {
		return "", fmt.Errorf("insert organization %s: %w", o.ExternalID, err)
	}
	if tag.RowsAffected() == 0 {
		return OpSkipped, nil
	}
	return OpCreated, nil
}

// GetAnimal implements Store.
func (s *Postgres) GetAnimal(ctx context.Context, externalID string) (shelter.Animal, error) {
	a, err := scanAnimal(s.pool.QueryRow(ctx, selectAnimal+` WHERE external_id = $1`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return shelter.Animal{}, ErrNotFound
	}
	if err != nil {
		return shelter.Animal{}, fmt.Errorf("get animal %s: %w", externalID, err)
	}
	return a, nil
}

// CountAnimals implements Store.
func (s *Postgres) CountAnimals(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM animals`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count animals: %w", err)
	}
	return n, nil
}

// GetOrganization implements Store.
func (s *Postgres) GetOrganization(ctx context.Context, externalID string) (shelter.Organization, error) {
	var o shelter.Organization
	var raw []byte
	err := s.pool.QueryRow(ctx, `
		SELECT
			external_id, name, email, phone, website,
			address1, address2, city, state, postcode, country,
			mission_statement, adoption_policy, adoption_url,
			collected_at, raw_data
		FROM organizations
		WHERE external_id = $1`, externalID).Scan(
		&o.ExternalID, &o.Name, &o.Email, &o.Phone, &o.Website,
		&o.Address1, &o.Address2, &o.City, &o.State, &o.Postcode, &o.Country,
		&o.MissionStatement, &o.AdoptionPolicy, &o.AdoptionURL,
		&o.CollectedAt, &raw,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return shelter.Organization{}, ErrNotFound
	}
	if err != nil {
		return shelter.Organization{}, fmt.Errorf("get organization %s: %w", externalID, err)
	}
	o.Raw = raw
	return o, nil
}

const selectAnimal = `
	SELECT
		id, external_id, organization_id, name, species,
		breed_primary, breed_secondary, breed_mixed, breed_unknown,
		age, gender, size, coat,
		color_primary, color_secondary, color_tertiary,
		spayed_neutered, house_trained, declawed, special_needs, shots_current,
		good_with_children, good_with_dogs, good_with_cats,
		description, photos, videos,
		city, state, postcode, country,
		status, distance, published_at, status_changed_at,
		collected_at, last_updated, raw_data
	FROM animals`

func scanAnimal(row pgx.Row) (shelter.Animal, error) {
	var a shelter.Animal
	var photos, videos, raw []byte
	if err := row.Scan(
		&a.ID, &a.ExternalID, &a.OrganizationID, &a.Name, &a.Species,
		&a.BreedPrimary, &a.BreedSecondary, &a.BreedMixed, &a.BreedUnknown,
		&a.Age, &a.Gender, &a.Size, &a.Coat,
		&a.ColorPrimary, &a.ColorSecondary, &a.ColorTertiary,
		&a.SpayedNeutered, &a.HouseTrained, &a.Declawed, &a.SpecialNeeds, &a.ShotsCurrent,
		&a.GoodWithChildren, &a.GoodWithDogs, &a.GoodWithCats,
		&a.Description, &photos, &videos,
		&a.City, &a.State, &a.Postcode, &a.Country,
		&a.Status, &a.Distance, &a.PublishedAt, &a.StatusChangedAt,
		&a.CollectedAt, &a.LastUpdated, &raw,
	); err != nil {
		return shelter.Animal{}, err
	}

	if err := json.Unmarshal(photos, &a.Photos); err != nil {
		return shelter.Animal{}, fmt.Errorf("decode photos: %w", err)
	}
	if err := json.Unmarshal(videos, &a.Videos); err != nil {
		return shelter.Animal{}, fmt.Errorf("decode videos: %w", err)
	}
	a.Raw = raw
	return a, nil
}

func insertAnimal(ctx context.Context, tx pgx.Tx, a *shelter.Animal) error {
	photos, videos, err := mediaJSON(*a)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, `
		INSERT INTO animals (
			external_id, organization_id, name, species,
			breed_primary, breed_secondary, breed_mixed, breed_unknown,
			age, gender, size, coat,
			color_primary, color_secondary, color_tertiary,
			spayed_neutered, house_trained, declawed, special_needs, shots_current,
			good_with_children, good_with_dogs, good_with_cats,
			description, photos, videos,
			city, state, postcode, country,
			status, distance, published_at, status_changed_at,
			collected_at, last_updated, raw_data
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,
			$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37
		)
		RETURNING id`,
		a.ExternalID, a.OrganizationID, a.Name, a.Species,
		a.BreedPrimary, a.BreedSecondary, a.BreedMixed, a.BreedUnknown,
		a.Age, a.Gender, a.Size, a.Coat,
		a.ColorPrimary, a.ColorSecondary, a.ColorTertiary,
		a.SpayedNeutered, a.HouseTrained, a.Declawed, a.SpecialNeeds, a.ShotsCurrent,
		a.GoodWithChildren, a.GoodWithDogs, a.GoodWithCats,
		a.Description, photos, videos,
		a.City, a.State, a.Postcode, a.Country,
		a.Status, a.Distance, a.PublishedAt, a.StatusChangedAt,
		a.CollectedAt, a.LastUpdated, rawJSON(a.Raw),
	).Scan(&a.ID)
}

func updateAnimal(ctx context.Context, tx pgx.Tx, a shelter.Animal) error {
	photos, _, err := mediaJSON(a)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		UPDATE animals
		SET
			status = $2,
			description = $3,
			photos = $4,
			status_changed_at = $5,
			raw_data = $6,
			last_updated = $7
		WHERE external_id = $1`,
		a.ExternalID, a.Status, a.Description, photos,
		a.StatusChangedAt, rawJSON(a.Raw), a.LastUpdated,
	)
	return err
}

// mediaJSON encodes the photo and video lists; nil lists are stored as [].
func mediaJSON(a shelter.Animal) (photos, videos []byte, err error) {
	p, v := a.Photos, a.Videos
	if p == nil {
		p = []shelter.Photo{}
	}
	if v == nil {
		v = []shelter.Video{}
	}
	if photos, err = json.Marshal(p); err != nil {
		return nil, nil, fmt.Errorf("encode photos: %w", err)
	}
	if videos, err = json.Marshal(v); err != nil {
		return nil, nil, fmt.Errorf("encode videos: %w", err)
	}
	return photos, videos, nil
}

// rawJSON returns the provenance payload as bytes, or nil for SQL NULL.
func rawJSON(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
