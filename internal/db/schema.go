package db

import "context"

// Every primary key leads with city, the partition key. Foreign keys repeat
// the city column so a referencing row can never land in a different
// partition than the row it references.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		city VARCHAR NOT NULL,
		id UUID NOT NULL,
		name VARCHAR,
		address VARCHAR,
		credit_card VARCHAR,
		PRIMARY KEY (city, id)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		city VARCHAR NOT NULL,
		id UUID NOT NULL,
		type VARCHAR,
		owner_id UUID NOT NULL,
		creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		status VARCHAR NOT NULL DEFAULT 'available',
		current_location VARCHAR,
		ext JSONB,
		PRIMARY KEY (city, id),
		CONSTRAINT fk_city_ref_users
			FOREIGN KEY (city, owner_id) REFERENCES users (city, id)
	)`,
	`CREATE TABLE IF NOT EXISTS rides (
		city VARCHAR NOT NULL,
		id UUID NOT NULL,
		vehicle_city VARCHAR,
		vehicle_id UUID NOT NULL,
		rider_id UUID NOT NULL,
		start_address VARCHAR,
		end_address VARCHAR,
		start_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		end_time TIMESTAMPTZ,
		PRIMARY KEY (city, id),
		CONSTRAINT fk_city_ref_users
			FOREIGN KEY (city, rider_id) REFERENCES users (city, id),
		CONSTRAINT fk_vehicle_city_ref_vehicles
			FOREIGN KEY (vehicle_city, vehicle_id) REFERENCES vehicles (city, id),
		CONSTRAINT check_vehicle_city_city CHECK (vehicle_city = city)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicle_location_histories (
		city VARCHAR NOT NULL,
		vehicle_id UUID NOT NULL,
		ts TIMESTAMPTZ NOT NULL DEFAULT now(),
		location POINT,
		PRIMARY KEY (city, vehicle_id, ts),
		CONSTRAINT fk_city_ref_vehicles
			FOREIGN KEY (city, vehicle_id) REFERENCES vehicles (city, id)
	)`,
	`CREATE TABLE IF NOT EXISTS promo_codes (
		code VARCHAR NOT NULL PRIMARY KEY,
		description VARCHAR,
		creation_time TIMESTAMPTZ NOT NULL DEFAULT now(),
		expiration_time TIMESTAMPTZ,
		rules JSONB
	)`,
	`CREATE TABLE IF NOT EXISTS user_promo_codes (
		city VARCHAR NOT NULL,
		user_id UUID NOT NULL,
		code VARCHAR NOT NULL,
		ts TIMESTAMPTZ NOT NULL DEFAULT now(),
		usage_count INT NOT NULL DEFAULT 0,
		PRIMARY KEY (city, user_id, code),
		CONSTRAINT fk_city_ref_users
			FOREIGN KEY (city, user_id) REFERENCES users (city, id)
	)`,
}

func (d *DB) createSchema(ctx context.Context, verbose bool) error {
	for _, stmt := range schemaStatements {
		if verbose {
			d.logger.DebugContext(ctx, "schema statement", "sql", stmt)
		}
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
