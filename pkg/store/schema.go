package store

// schema creates the tables when absent. Statements run in order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS animals (
		id                  BIGSERIAL PRIMARY KEY,
		external_id         TEXT NOT NULL UNIQUE,
		organization_id     TEXT,
		name                TEXT,
		species             TEXT,
		breed_primary       TEXT,
		breed_secondary     TEXT,
		breed_mixed         BOOLEAN,
		breed_unknown       BOOLEAN,
		age                 TEXT,
		gender              TEXT,
		size                TEXT,
		coat                TEXT,
		color_primary       TEXT,
		color_secondary     TEXT,
		color_tertiary      TEXT,
		spayed_neutered     BOOLEAN,
		house_trained       BOOLEAN,
		declawed            BOOLEAN,
		special_needs       BOOLEAN,
		shots_current       BOOLEAN,
		good_with_children  BOOLEAN,
		good_with_dogs      BOOLEAN,
		good_with_cats      BOOLEAN,
		description         TEXT,
		photos              JSONB NOT NULL DEFAULT '[]'::jsonb,
		videos              JSONB NOT NULL DEFAULT '[]'::jsonb,
		city                TEXT,
		state               TEXT,
		postcode            TEXT,
		country             TEXT,
		status              TEXT,
		distance            DOUBLE PRECISION,
		published_at        TIMESTAMPTZ,
		status_changed_at   TIMESTAMPTZ,
		collected_at        TIMESTAMPTZ NOT NULL,
		last_updated        TIMESTAMPTZ NOT NULL,
		raw_data            JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS animals_species_idx ON animals (species)`,
	`CREATE INDEX IF NOT EXISTS animals_state_idx ON animals (state)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		external_id        TEXT PRIMARY KEY,
		name               TEXT,
		email              TEXT,
		phone              TEXT,
		website            TEXT,
		address1           TEXT,
		address2           TEXT,
		city               TEXT,
		state              TEXT,
		postcode           TEXT,
		country            TEXT,
		mission_statement  TEXT,
		adoption_policy    TEXT,
		adoption_url       TEXT,
		collected_at       TIMESTAMPTZ NOT NULL,
		raw_data           JSONB
	)`,
}
