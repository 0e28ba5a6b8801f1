package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Partial unique index backing the one-pending-bid-per-bidder rule
const PendingBidIndex = "bids_one_pending_per_bidder"

var indexStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + PendingBidIndex + ` ON bids (property_id, bidder_id) WHERE status = 'pending'`,
	`CREATE INDEX IF NOT EXISTS bids_status_idx ON bids (status)`,
	`CREATE INDEX IF NOT EXISTS bids_bidder_idx ON bids (bidder_id)`,
	`CREATE INDEX IF NOT EXISTS properties_owner_idx ON properties (owner_id)`,
	`CREATE INDEX IF NOT EXISTS properties_city_state_idx ON properties (city, state)`,
	`CREATE INDEX IF NOT EXISTS properties_type_status_idx ON properties (type, status)`,
	`CREATE INDEX IF NOT EXISTS properties_created_at_idx ON properties (created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS properties_search_idx ON properties USING GIN (to_tsvector('english', title || ' ' || description))`,
	`CREATE INDEX IF NOT EXISTS users_created_at_idx ON users (created_at DESC)`,
}

// SearchVector is the full-text document for title+description. It must stay
// in step with properties_search_idx for the index to apply.
const SearchVector = `to_tsvector('english', property.title || ' ' || property.description)`

// CreateSchema creates tables and indexes if they do not exist yet
func CreateSchema(ctx context.Context, db *bun.DB) error {
	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewCreateTable().
			Model((*User)(nil)).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create users table: %w", err)
		}

		if _, err := tx.NewCreateTable().
			Model((*Property)(nil)).
			IfNotExists().
			ForeignKey(`("owner_id") REFERENCES "users" ("id")`).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create properties table: %w", err)
		}

		if _, err := tx.NewCreateTable().
			Model((*Bid)(nil)).
			IfNotExists().
			ForeignKey(`("property_id") REFERENCES "properties" ("id")`).
			ForeignKey(`("bidder_id") REFERENCES "users" ("id")`).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create bids table: %w", err)
		}

		for _, stmt := range indexStatements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create index: %w", err)
			}
		}

		return nil
	})
}
