package bid

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"github.com/estatebid/estatebid-api/internal/database"
	"github.com/estatebid/estatebid-api/internal/database/dbtest"
)

func loadProperty(t *testing.T, db *bun.DB, id uuid.UUID) *database.Property {
	t.Helper()

	p := new(database.Property)
	require.NoError(t, db.NewSelect().Model(p).Where("id = ?", id).Scan(context.Background()))
	return p
}

func TestRepository_CreateLinksBid(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	seeker := dbtest.InsertUser(t, db, "seeker", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Lakeside cabin")

	id, err := repo.Create(ctx, NewBid{PropertyID: prop.ID, BidderID: seeker.ID, Amount: 90000, Message: "hi"})
	require.NoError(t, err)

	assert.Contains(t, loadProperty(t, db, prop.ID).BidIDs, id.String())

	b, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	assert.Equal(t, owner.ID, b.PropertyOwnerID())
	require.NotNil(t, b.Bidder)
	assert.Equal(t, "seeker", b.Bidder.Name)
	require.NotNil(t, b.Property)
	assert.Equal(t, "Lakeside cabin", b.Property.Title)
}

func TestRepository_DuplicatePending(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	seeker := dbtest.InsertUser(t, db, "seeker", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Loft")

	_, err := repo.Create(ctx, NewBid{PropertyID: prop.ID, BidderID: seeker.ID, Amount: 1})
	require.NoError(t, err)

	_, err = repo.Create(ctx, NewBid{PropertyID: prop.ID, BidderID: seeker.ID, Amount: 2})
	assert.ErrorIs(t, err, ErrDuplicatePending)
	assert.Len(t, loadProperty(t, db, prop.ID).BidIDs, 1)
}

func TestRepository_CreateOnUnavailableProperty(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	seeker := dbtest.InsertUser(t, db, "seeker", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Barn")

	_, err := db.NewUpdate().Model((*database.Property)(nil)).
		Set("status = 'sold'").Where("id = ?", prop.ID).Exec(ctx)
	require.NoError(t, err)

	_, err = repo.Create(ctx, NewBid{PropertyID: prop.ID, BidderID: seeker.ID, Amount: 1})
	assert.ErrorIs(t, err, ErrPropertyUnavailable)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "insert must roll back")
}

func TestRepository_AcceptCascades(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	a := dbtest.InsertUser(t, db, "a", "property_seeker")
	b := dbtest.InsertUser(t, db, "b", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Villa")

	winner := dbtest.InsertBid(t, db, prop.ID, a.ID, 100)
	loser := dbtest.InsertBid(t, db, prop.ID, b.ID, 90)

	require.NoError(t, repo.Accept(ctx, winner.ID, prop.ID))

	assert.Equal(t, "pending", loadProperty(t, db, prop.ID).Status)

	got, err := repo.GetByID(ctx, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, got.Status)

	got, err = repo.GetByID(ctx, loser.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, got.Status)

	// Property is no longer available
	c := dbtest.InsertUser(t, db, "c", "property_seeker")
	_, err = repo.Create(ctx, NewBid{PropertyID: prop.ID, BidderID: c.ID, Amount: 200})
	assert.ErrorIs(t, err, ErrPropertyUnavailable)
}

func TestRepository_ConcurrentAcceptOnlyOneWins(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	a := dbtest.InsertUser(t, db, "a", "property_seeker")
	b := dbtest.InsertUser(t, db, "b", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Townhouse")

	ids := []uuid.UUID{
		dbtest.InsertBid(t, db, prop.ID, a.ID, 100).ID,
		dbtest.InsertBid(t, db, prop.ID, b.ID, 110).ID,
	}

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			errs[i] = repo.Accept(ctx, id, prop.ID)
		}(i, id)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)

	accepted, err := db.NewSelect().Model((*database.Bid)(nil)).
		Where("property_id = ?", prop.ID).Where("status = 'accepted'").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, accepted)
}

func TestRepository_RejectOnlyTouchesBid(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	a := dbtest.InsertUser(t, db, "a", "property_seeker")
	b := dbtest.InsertUser(t, db, "b", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Cottage")

	first := dbtest.InsertBid(t, db, prop.ID, a.ID, 100)
	second := dbtest.InsertBid(t, db, prop.ID, b.ID, 90)

	require.NoError(t, repo.Reject(ctx, first.ID))
	assert.ErrorIs(t, repo.Reject(ctx, first.ID), ErrNotPending)

	assert.Equal(t, "available", loadProperty(t, db, prop.ID).Status)
	got, err := repo.GetByID(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)

	// A rejected bid frees the bidder to bid again
	_, err = repo.Create(ctx, NewBid{PropertyID: prop.ID, BidderID: a.ID, Amount: 120})
	assert.NoError(t, err)
}

func TestRepository_DeleteDetaches(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	seeker := dbtest.InsertUser(t, db, "seeker", "property_seeker")
	prop := dbtest.InsertProperty(t, db, owner.ID, "Studio")
	b := dbtest.InsertBid(t, db, prop.ID, seeker.ID, 10)

	require.NoError(t, repo.Delete(ctx, b.ID, prop.ID))
	assert.Empty(t, loadProperty(t, db, prop.ID).BidIDs)

	_, err := repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, b.ID, prop.ID), ErrNotFound)
}

func TestRepository_ListVisibility(t *testing.T) {
	db := dbtest.Open(t)
	repo := NewRepository(db)
	ctx := context.Background()

	owner := dbtest.InsertUser(t, db, "owner", "property_owner")
	a := dbtest.InsertUser(t, db, "a", "property_seeker")
	b := dbtest.InsertUser(t, db, "b", "property_seeker")
	p1 := dbtest.InsertProperty(t, db, owner.ID, "One")
	p2 := dbtest.InsertProperty(t, db, owner.ID, "Two")

	dbtest.InsertBid(t, db, p1.ID, a.ID, 1)
	dbtest.InsertBid(t, db, p2.ID, a.ID, 2)
	dbtest.InsertBid(t, db, p1.ID, b.ID, 3)

	bids, err := repo.List(ctx, ListFilter{ActorID: a.ID})
	require.NoError(t, err)
	assert.Len(t, bids, 2)

	bids, err = repo.List(ctx, ListFilter{ActorID: owner.ID})
	require.NoError(t, err)
	assert.Len(t, bids, 3)

	bids, err = repo.List(ctx, ListFilter{ActorID: owner.ID, PropertyIDs: []uuid.UUID{p1.ID}})
	require.NoError(t, err)
	assert.Len(t, bids, 2)

	bids, err = repo.List(ctx, ListFilter{ActorID: uuid.New(), Admin: true})
	require.NoError(t, err)
	assert.Len(t, bids, 3)
	assert.True(t, !bids[0].CreatedAt.Before(bids[2].CreatedAt), "newest first")
}
