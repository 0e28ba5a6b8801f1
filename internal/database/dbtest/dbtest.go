// Package dbtest opens the PostgreSQL database used by repository tests.
// Tests are skipped unless TEST_DATABASE_URL is set.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/estatebid/estatebid-api/internal/database"
)

const envKey = "TEST_DATABASE_URL"

// Open connects to the test database, bootstraps the schema and empties every
// table. The connection is closed when the test finishes.
func Open(t *testing.T) *bun.DB {
	t.Helper()

	dsn := os.Getenv(envKey)
	if dsn == "" {
		t.Skipf("%s not set", envKey)
	}

	ctx := context.Background()

	db, err := database.OpenDSN(ctx, dsn, 5, 2)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.CreateSchema(ctx, db))
	_, err = db.ExecContext(ctx, "TRUNCATE bids, properties, users")
	require.NoError(t, err)

	return db
}

// InsertUser stores a user row with the given role
func InsertUser(t *testing.T, db *bun.DB, name, role string) *database.User {
	t.Helper()

	u := &database.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	_, err := db.NewInsert().Model(u).Returning("*").Exec(context.Background())
	require.NoError(t, err)
	return u
}

// InsertProperty stores an available property owned by ownerID
func InsertProperty(t *testing.T, db *bun.DB, ownerID uuid.UUID, title string) *database.Property {
	t.Helper()

	p := &database.Property{
		OwnerID:     ownerID,
		Title:       title,
		Description: title + " description",
		Type:        "house",
		Status:      "available",
		Price:       100000,
		Address:     "1 Main St",
		City:        "Accra",
		State:       "Greater Accra",
		ZipCode:     "00233",
		Country:     "Ghana",
	}
	_, err := db.NewInsert().
		Model(p).
		Returning("*").
		Exec(context.Background())
	require.NoError(t, err)
	return p
}

// InsertBid stores a pending bid and links it to its property
func InsertBid(t *testing.T, db *bun.DB, propertyID, bidderID uuid.UUID, amount float64) *database.Bid {
	t.Helper()

	ctx := context.Background()
	b := &database.Bid{
		PropertyID: propertyID,
		BidderID:   bidderID,
		Amount:     amount,
		Status:     "pending",
	}
	_, err := db.NewInsert().Model(b).Returning("*").Exec(ctx)
	require.NoError(t, err)

	_, err = db.NewUpdate().
		Model((*database.Property)(nil)).
		Set("bid_ids = array_append(bid_ids, ?)", b.ID).
		Where("id = ?", propertyID).
		Exec(ctx)
	require.NoError(t, err)

	return b
}
