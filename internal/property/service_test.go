package property

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/cache"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/user"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, in NewProperty) (*Property, error) {
	args := m.Called(ctx, in)
	if p, ok := args.Get(0).(*Property); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id uuid.UUID) (*Property, error) {
	args := m.Called(ctx, id)
	if p, ok := args.Get(0).(*Property); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) List(ctx context.Context, filter Filter) ([]Property, int64, error) {
	args := m.Called(ctx, filter)
	if p, ok := args.Get(0).([]Property); ok {
		return p, args.Get(1).(int64), args.Error(2)
	}
	return nil, 0, args.Error(2)
}

func (m *mockStore) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Property, error) {
	args := m.Called(ctx, ownerID)
	if p, ok := args.Get(0).([]Property); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	return m.Called(ctx, id, patch).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) HasAcceptedBid(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type mockBidReader struct {
	mock.Mock
}

func (m *mockBidReader) ListForProperties(ctx context.Context, actor *user.User, ids []uuid.UUID) (map[uuid.UUID][]bid.Bid, error) {
	args := m.Called(ctx, actor, ids)
	if g, ok := args.Get(0).(map[uuid.UUID][]bid.Bid); ok {
		return g, args.Error(1)
	}
	return nil, args.Error(1)
}

var (
	owner  = &user.User{ID: uuid.New(), Role: user.RolePropertyOwner}
	other  = &user.User{ID: uuid.New(), Role: user.RolePropertyOwner}
	admin  = &user.User{ID: uuid.New(), Role: user.RoleAdmin}
	seeker = &user.User{ID: uuid.New(), Role: user.RolePropertySeeker}
)

type serviceFixture struct {
	svc   *Service
	store *mockStore
	bids  *mockBidReader
	mr    *miniredis.Miniredis
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := new(mockStore)
	bids := new(mockBidReader)
	t.Cleanup(func() {
		store.AssertExpectations(t)
		bids.AssertExpectations(t)
	})

	svc := NewService(store, bids, cache.New(client), logging.NewTestLogger(),
		config.CatalogConfig{DefaultCountry: "Ghana"},
		config.CacheConfig{PropertyListTTL: time.Minute},
	)

	return &serviceFixture{svc: svc, store: store, bids: bids, mr: mr}
}

func listing(ownerID uuid.UUID) *Property {
	return &Property{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   "House1",
		Type:    TypeHouse,
		Status:  StatusAvailable,
		Price:   50000,
		Images:  []string{},
	}
}

func TestCreate_DefaultsCountry(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created := listing(owner.ID)
	f.store.On("Create", ctx, mock.MatchedBy(func(in NewProperty) bool {
		return in.OwnerID == owner.ID &&
			in.Title == "House1" &&
			in.Location.Country == "Ghana" &&
			in.Location.City == "Accra" &&
			in.Features != nil
	})).Return(created, nil)

	p, err := f.svc.Create(ctx, owner, CreateInput{
		Title:       " House1 ",
		Description: "Three bedrooms",
		Type:        TypeHouse,
		Price:       50000,
		Location:    Location{Address: "1 Main St", City: " Accra", State: "GA", ZipCode: "00233"},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, p.ID)
}

func TestCreate_Validation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, owner, CreateInput{Type: "castle"})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = f.svc.Create(ctx, owner, CreateInput{Type: TypeLand, Price: -1})
	assert.ErrorIs(t, err, ErrNegativePrice)

	_, err = f.svc.Create(ctx, owner, CreateInput{Type: TypeLand, Images: make([]string, MaxImages+1)})
	assert.ErrorIs(t, err, ErrTooManyImages)
}

func TestList_CachesUntilMutation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	filter := Filter{City: "Accra", Page: 1, Limit: 10}
	page := []Property{*listing(owner.ID)}
	f.store.On("List", ctx, filter).Return(page, int64(11), nil).Twice()

	first, err := f.svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Pagination.Pages)
	assert.Equal(t, int64(11), first.Pagination.Total)

	// Served from Redis
	second, err := f.svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, first.Properties[0].ID, second.Properties[0].ID)

	// Any mutation bumps the generation
	f.store.On("Create", ctx, mock.Anything).Return(listing(owner.ID), nil)
	_, err = f.svc.Create(ctx, owner, CreateInput{Title: "x", Description: "y", Type: TypeHouse})
	require.NoError(t, err)

	_, err = f.svc.List(ctx, filter)
	require.NoError(t, err)
}

func TestList_RedisDownFallsBackToStore(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	f.mr.Close()

	filter := Filter{Page: 1, Limit: 10}
	f.store.On("List", ctx, filter).Return([]Property{}, int64(0), nil)

	result, err := f.svc.List(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Pagination.Pages)
}

func TestList_InvalidEnums(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.List(context.Background(), Filter{Type: "boat", Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrInvalidType)

	_, err = f.svc.List(context.Background(), Filter{Status: "gone", Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestGet_AttachesBidsOnlyWithActor(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	p := listing(owner.ID)
	f.store.On("GetByID", ctx, p.ID).Return(p, nil).Once()

	anon, err := f.svc.Get(ctx, nil, p.ID)
	require.NoError(t, err)
	assert.Nil(t, anon.Bids)

	withBids := listing(owner.ID)
	withBids.ID = p.ID
	f.store.On("GetByID", ctx, p.ID).Return(withBids, nil).Once()
	f.bids.On("ListForProperties", ctx, owner, []uuid.UUID{p.ID}).
		Return(map[uuid.UUID][]bid.Bid{p.ID: {{ID: uuid.New()}, {ID: uuid.New()}}}, nil)

	got, err := f.svc.Get(ctx, owner, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Bids, 2)
}

func TestListMine(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	a, b := listing(owner.ID), listing(owner.ID)
	f.store.On("ListByOwner", ctx, owner.ID).Return([]Property{*a, *b}, nil)
	f.bids.On("ListForProperties", ctx, owner, []uuid.UUID{a.ID, b.ID}).
		Return(map[uuid.UUID][]bid.Bid{b.ID: {{ID: uuid.New()}}}, nil)

	mine, err := f.svc.ListMine(ctx, owner)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Empty(t, mine[0].Bids)
	assert.Len(t, mine[1].Bids, 1)
}

func TestUpdate_RejectsPendingStatus(t *testing.T) {
	f := newServiceFixture(t)

	pending := StatusPending
	_, err := f.svc.Update(context.Background(), owner, uuid.New(), Patch{Status: &pending})
	assert.ErrorIs(t, err, ErrPendingStatus)
}

func TestUpdate_Permissions(t *testing.T) {
	ctx := context.Background()
	sold := StatusSold

	t.Run("other owner", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)

		_, err := f.svc.Update(ctx, other, p.ID, Patch{Status: &sold})
		assert.ErrorIs(t, err, ErrNotAllowedEdit)
	})

	t.Run("admin", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)
		f.store.On("Update", ctx, p.ID, Patch{Status: &sold}).Return(nil)

		_, err := f.svc.Update(ctx, admin, p.ID, Patch{Status: &sold})
		assert.NoError(t, err)
	})
}

func TestUpdate_ReopenWithAcceptedBid(t *testing.T) {
	ctx := context.Background()
	available := StatusAvailable

	t.Run("accepted bid keeps it closed", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		p.Status = StatusPending
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)
		f.store.On("HasAcceptedBid", ctx, p.ID).Return(true, nil)

		_, err := f.svc.Update(ctx, owner, p.ID, Patch{Status: &available})
		assert.ErrorIs(t, err, ErrAcceptedBid)
		f.store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accepted bid withdrawn", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		p.Status = StatusPending
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)
		f.store.On("HasAcceptedBid", ctx, p.ID).Return(false, nil)
		f.store.On("Update", ctx, p.ID, Patch{Status: &available}).Return(nil)

		_, err := f.svc.Update(ctx, owner, p.ID, Patch{Status: &available})
		assert.NoError(t, err)
	})

	t.Run("store guard", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		p.Status = StatusSold
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)
		f.store.On("HasAcceptedBid", ctx, p.ID).Return(false, nil)
		f.store.On("Update", ctx, p.ID, Patch{Status: &available}).Return(ErrAcceptedBid)

		_, err := f.svc.Update(ctx, admin, p.ID, Patch{Status: &available})
		assert.ErrorIs(t, err, ErrAcceptedBid)
	})
}

func TestUpdate_ImageLimitCountsExisting(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	p := listing(owner.ID)
	p.Images = make([]string, 8)
	f.store.On("GetByID", ctx, p.ID).Return(p, nil)

	_, err := f.svc.Update(ctx, owner, p.ID, Patch{Images: []string{"https://a", "https://b", "https://c"}})
	assert.ErrorIs(t, err, ErrTooManyImages)
}

func TestUpdate_NormalizesLocation(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	p := listing(owner.ID)
	f.store.On("GetByID", ctx, p.ID).Return(p, nil)
	f.store.On("Update", ctx, p.ID, mock.MatchedBy(func(patch Patch) bool {
		return patch.Location != nil && patch.Location.Country == "Ghana" && *patch.Title == "Renamed"
	})).Return(nil)

	title := "  Renamed "
	_, err := f.svc.Update(ctx, owner, p.ID, Patch{
		Title:    &title,
		Location: &Location{Address: "2 High St", City: "Kumasi", State: "Ashanti", ZipCode: "1"},
	})
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("seeker forbidden", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)

		assert.ErrorIs(t, f.svc.Delete(ctx, seeker, p.ID), ErrNotAllowedDel)
	})

	t.Run("owner", func(t *testing.T) {
		f := newServiceFixture(t)
		p := listing(owner.ID)
		f.store.On("GetByID", ctx, p.ID).Return(p, nil)
		f.store.On("Delete", ctx, p.ID).Return(nil)

		assert.NoError(t, f.svc.Delete(ctx, owner, p.ID))
	})

	t.Run("missing", func(t *testing.T) {
		f := newServiceFixture(t)
		id := uuid.New()
		f.store.On("GetByID", ctx, id).Return(nil, ErrNotFound)

		assert.ErrorIs(t, f.svc.Delete(ctx, owner, id), ErrNotFound)
	})
}
