package property

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/cache"
	"github.com/estatebid/estatebid-api/internal/config"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/user"
)

// MaxImages caps the number of images on one listing
const MaxImages = 10

var (
	ErrNotAllowedEdit = apperror.Forbidden("not authorized to update this property")
	ErrNotAllowedDel  = apperror.Forbidden("not authorized to delete this property")
	ErrPendingStatus  = apperror.Validation("status cannot be set to pending directly, accept a bid instead")
	ErrInvalidType    = apperror.Validation("invalid property type")
	ErrInvalidStatus  = apperror.Validation("invalid property status")
	ErrNegativePrice  = apperror.Validation("price must be greater than or equal to 0")
	ErrTooManyImages  = apperror.Validation("a property can have at most 10 images")
	ErrAcceptedBid    = apperror.InvalidState("property has an accepted bid and cannot be made available again")
)

// Store is the persistence the property service needs
type Store interface {
	Create(ctx context.Context, in NewProperty) (*Property, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Property, error)
	List(ctx context.Context, filter Filter) ([]Property, int64, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Property, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasAcceptedBid(ctx context.Context, id uuid.UUID) (bool, error)
}

// BidReader lists the bids an actor may see on a set of properties
type BidReader interface {
	ListForProperties(ctx context.Context, actor *user.User, propertyIDs []uuid.UUID) (map[uuid.UUID][]bid.Bid, error)
}

// ListCache caches listing pages under a generation-versioned namespace
type ListCache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Generation(ctx context.Context, namespace string) (int64, error)
	Invalidate(ctx context.Context, namespace string) error
}

// ListResult is one page of listings
type ListResult struct {
	Properties []Property          `json:"properties"`
	Pagination httputil.Pagination `json:"pagination"`
}

type Service struct {
	store          Store
	bids           BidReader
	cache          ListCache
	logger         *logging.Logger
	defaultCountry string
	listTTL        time.Duration
}

func NewService(
	store Store,
	bids BidReader,
	listCache ListCache,
	logger *logging.Logger,
	catalog config.CatalogConfig,
	cacheCfg config.CacheConfig,
) *Service {
	return &Service{
		store:          store,
		bids:           bids,
		cache:          listCache,
		logger:         logger,
		defaultCountry: catalog.DefaultCountry,
		listTTL:        cacheCfg.PropertyListTTL,
	}
}

// CreateInput holds a new listing
type CreateInput struct {
	Title       string
	Description string
	Type        Type
	Price       float64
	Location    Location
	Images      []string
	Features    Features
}

// Create stores a new available listing owned by actor
func (s *Service) Create(ctx context.Context, actor *user.User, in CreateInput) (*Property, error) {
	if !in.Type.Valid() {
		return nil, ErrInvalidType
	}
	if in.Price < 0 {
		return nil, ErrNegativePrice
	}
	if len(in.Images) > MaxImages {
		return nil, ErrTooManyImages
	}

	features := in.Features
	if features == nil {
		features = Features{}
	}

	p, err := s.store.Create(ctx, NewProperty{
		OwnerID:     actor.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Type:        in.Type,
		Price:       in.Price,
		Location:    s.normalizeLocation(in.Location),
		Images:      in.Images,
		Features:    features,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	logging.GetLoggerFromContext(ctx).Info("property created",
		"property_id", p.ID,
		"owner_id", actor.ID,
	)

	return p, nil
}

// List returns a page of public listings. Pages are served from the cache
// when possible and cache failures only cost a database round trip.
func (s *Service) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, ErrInvalidType
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	key, cacheable := s.cacheKey(ctx, filter)
	if cacheable {
		var cached ListResult
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("failed to read property list cache", "error", err)
		}
		if hit {
			return &cached, nil
		}
	}

	properties, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Properties: properties,
		Pagination: httputil.NewPagination(filter.Page, filter.Limit, total),
	}

	if cacheable {
		if err := s.cache.SetJSON(ctx, key, result, s.listTTL); err != nil {
			s.logger.Warn("failed to write property list cache", "error", err)
		}
	}

	return result, nil
}

// Get returns one listing. With an actor the bids visible to them are
// attached, newest first.
func (s *Service) Get(ctx context.Context, actor *user.User, id uuid.UUID) (*Property, error) {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor == nil {
		return p, nil
	}

	grouped, err := s.bids.ListForProperties(ctx, actor, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Bids = grouped[p.ID]

	return p, nil
}

// ListMine returns the actor's own listings with their bids
func (s *Service) ListMine(ctx context.Context, actor *user.User) ([]Property, error) {
	properties, err := s.store.ListByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(properties))
	for _, p := range properties {
		ids = append(ids, p.ID)
	}

	grouped, err := s.bids.ListForProperties(ctx, actor, ids)
	if err != nil {
		return nil, err
	}

	for i := range properties {
		properties[i].Bids = grouped[properties[i].ID]
	}

	return properties, nil
}

// Update applies a partial update on behalf of the owner or an admin
func (s *Service) Update(ctx context.Context, actor *user.User, id uuid.UUID, patch Patch) (*Property, error) {
	if patch.Type != nil && !patch.Type.Valid() {
		return nil, ErrInvalidType
	}
	if patch.Status != nil {
		if *patch.Status == StatusPending {
			return nil, ErrPendingStatus
		}
		if !patch.Status.Valid() {
			return nil, ErrInvalidStatus
		}
	}
	if patch.Price != nil && *patch.Price < 0 {
		return nil, ErrNegativePrice
	}

	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canModify(actor, existing) {
		return nil, ErrNotAllowedEdit
	}

	if len(existing.Images)+len(patch.Images) > MaxImages {
		return nil, ErrTooManyImages
	}

	// An accepted bid keeps the listing closed. The store repeats this check
	// atomically with the update.
	if patch.Status != nil && *patch.Status == StatusAvailable {
		accepted, err := s.store.HasAcceptedBid(ctx, id)
		if err != nil {
			return nil, err
		}
		if accepted {
			return nil, ErrAcceptedBid
		}
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		patch.Title = &title
	}
	if patch.Description != nil {
		description := strings.TrimSpace(*patch.Description)
		patch.Description = &description
	}
	if patch.Location != nil {
		loc := s.normalizeLocation(*patch.Location)
		patch.Location = &loc
	}

	if err := s.store.Update(ctx, id, patch); err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	return s.store.GetByID(ctx, id)
}

// Delete removes a listing and its bids on behalf of the owner or an admin
func (s *Service) Delete(ctx context.Context, actor *user.User, id uuid.UUID) error {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !canModify(actor, existing) {
		return ErrNotAllowedDel
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)

	logging.GetLoggerFromContext(ctx).Info("property deleted",
		"property_id", id,
		"actor_id", actor.ID,
	)

	return nil
}

func canModify(actor *user.User, p *Property) bool {
	return actor.Role == user.RoleAdmin || p.OwnerID == actor.ID
}

func (s *Service) normalizeLocation(loc Location) Location {
	loc.Address = strings.TrimSpace(loc.Address)
	loc.City = strings.TrimSpace(loc.City)
	loc.State = strings.TrimSpace(loc.State)
	loc.ZipCode = strings.TrimSpace(loc.ZipCode)
	loc.Country = strings.TrimSpace(loc.Country)
	if loc.Country == "" {
		loc.Country = s.defaultCountry
	}
	return loc
}

// cacheKey derives the cache key of filter. The second result is false when
// the cache cannot be consulted.
func (s *Service) cacheKey(ctx context.Context, filter Filter) (string, bool) {
	if s.cache == nil || s.listTTL <= 0 {
		return "", false
	}

	gen, err := s.cache.Generation(ctx, bid.PropertyListNamespace)
	if err != nil {
		s.logger.Warn("failed to read property cache generation", "error", err)
		return "", false
	}

	return cache.Key(bid.PropertyListNamespace, gen, filter.values()), true
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, bid.PropertyListNamespace); err != nil {
		s.logger.Warn("failed to invalidate property cache", "error", err)
	}
}

// values is the canonical query form of f, used for cache keys
func (f Filter) values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("limit", strconv.Itoa(f.Limit))
	if f.Type != "" {
		v.Set("type", string(f.Type))
	}
	if f.Status != "" {
		v.Set("status", string(f.Status))
	}
	if city := strings.ToLower(strings.TrimSpace(f.City)); city != "" {
		v.Set("city", city)
	}
	if state := strings.ToLower(strings.TrimSpace(f.State)); state != "" {
		v.Set("state", state)
	}
	if f.MinPrice != nil {
		v.Set("minPrice", strconv.FormatFloat(*f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice != nil {
		v.Set("maxPrice", strconv.FormatFloat(*f.MaxPrice, 'f', -1, 64))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		v.Set("search", search)
	}
	return v
}
