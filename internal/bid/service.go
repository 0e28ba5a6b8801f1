package bid

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/user"
)

var (
	ErrOwnProperty    = apperror.Forbidden("you cannot bid on your own property")
	ErrNotAllowedView = apperror.Forbidden("not authorized to view this bid")
	ErrNotAllowedEdit = apperror.Forbidden("not authorized to update this bid")
	ErrNotAllowedDel  = apperror.Forbidden("not authorized to delete this bid")
	ErrInvalidStatus  = apperror.Validation("status must be accepted or rejected")
	ErrNegativeAmount = apperror.Validation("amount must be greater than or equal to 0")
)

// PropertyListNamespace is the cache namespace of public property listings.
// Bids change property status and bid lists, so bid mutations invalidate it.
const PropertyListNamespace = "properties"

// Store is the persistence the bid service needs
type Store interface {
	GetPropertyState(ctx context.Context, propertyID uuid.UUID) (*PropertyState, error)
	HasPending(ctx context.Context, propertyID, bidderID uuid.UUID) (bool, error)
	Create(ctx context.Context, in NewBid) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Bid, error)
	List(ctx context.Context, filter ListFilter) ([]Bid, error)
	Accept(ctx context.Context, bidID, propertyID uuid.UUID) error
	Reject(ctx context.Context, bidID uuid.UUID) error
	Delete(ctx context.Context, bidID, propertyID uuid.UUID) error
}

// Invalidator drops cached data for a namespace
type Invalidator interface {
	Invalidate(ctx context.Context, namespace string) error
}

type Service struct {
	store  Store
	cache  Invalidator
	logger *logging.Logger
}

func NewService(store Store, cache Invalidator, logger *logging.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger}
}

// CreateInput holds a new bid request
type CreateInput struct {
	PropertyID uuid.UUID
	Amount     float64
	Message    string
}

// Create places a pending bid. Preconditions are checked in order: the
// property exists, it is available, the bidder is not its owner and the
// bidder has no pending bid on it yet.
func (s *Service) Create(ctx context.Context, actor *user.User, in CreateInput) (*Bid, error) {
	if in.Amount < 0 {
		return nil, ErrNegativeAmount
	}

	prop, err := s.store.GetPropertyState(ctx, in.PropertyID)
	if err != nil {
		return nil, err
	}

	if prop.Status != propertyAvailable {
		return nil, ErrPropertyUnavailable
	}

	if prop.OwnerID == actor.ID {
		return nil, ErrOwnProperty
	}

	pending, err := s.store.HasPending(ctx, in.PropertyID, actor.ID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrDuplicatePending
	}

	id, err := s.store.Create(ctx, NewBid{
		PropertyID: in.PropertyID,
		BidderID:   actor.ID,
		Amount:     in.Amount,
		Message:    strings.TrimSpace(in.Message),
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	created, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bid: %w", err)
	}
	return created, nil
}

// List returns the bids visible to actor, optionally narrowed to one property
func (s *Service) List(ctx context.Context, actor *user.User, propertyID *uuid.UUID) ([]Bid, error) {
	filter := ListFilter{ActorID: actor.ID, Admin: actor.Role == user.RoleAdmin}
	if propertyID != nil {
		filter.PropertyIDs = []uuid.UUID{*propertyID}
	}
	return s.store.List(ctx, filter)
}

// ListForProperties groups the bids actor may see on each of propertyIDs
func (s *Service) ListForProperties(ctx context.Context, actor *user.User, propertyIDs []uuid.UUID) (map[uuid.UUID][]Bid, error) {
	grouped := make(map[uuid.UUID][]Bid, len(propertyIDs))
	if len(propertyIDs) == 0 {
		return grouped, nil
	}

	bids, err := s.store.List(ctx, ListFilter{
		ActorID:     actor.ID,
		Admin:       actor.Role == user.RoleAdmin,
		PropertyIDs: propertyIDs,
	})
	if err != nil {
		return nil, err
	}

	for _, b := range bids {
		grouped[b.PropertyID] = append(grouped[b.PropertyID], b)
	}
	return grouped, nil
}

// Get returns a bid to its bidder, the property owner or an admin
func (s *Service) Get(ctx context.Context, actor *user.User, id uuid.UUID) (*Bid, error) {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canView(actor, b) {
		return nil, ErrNotAllowedView
	}
	return b, nil
}

// UpdateStatus accepts or rejects a pending bid. Accepting also moves the
// property to pending and rejects the other pending bids on it.
func (s *Service) UpdateStatus(ctx context.Context, actor *user.User, id uuid.UUID, status Status) (*Bid, error) {
	if status != StatusAccepted && status != StatusRejected {
		return nil, ErrInvalidStatus
	}

	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if actor.Role != user.RoleAdmin && b.PropertyOwnerID() != actor.ID {
		return nil, ErrNotAllowedEdit
	}

	if b.Status != StatusPending {
		return nil, ErrNotPending
	}

	if status == StatusAccepted {
		err = s.store.Accept(ctx, b.ID, b.PropertyID)
	} else {
		err = s.store.Reject(ctx, b.ID)
	}
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)

	logging.GetLoggerFromContext(ctx).Info("bid status updated",
		"bid_id", b.ID,
		"property_id", b.PropertyID,
		"status", status,
	)

	updated, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload bid: %w", err)
	}
	return updated, nil
}

// Delete removes a bid. Only the bidder or an admin may do this.
func (s *Service) Delete(ctx context.Context, actor *user.User, id uuid.UUID) error {
	b, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if actor.Role != user.RoleAdmin && b.BidderID != actor.ID {
		return ErrNotAllowedDel
	}

	if err := s.store.Delete(ctx, b.ID, b.PropertyID); err != nil {
		return err
	}

	s.invalidate(ctx)
	return nil
}

func canView(actor *user.User, b *Bid) bool {
	return actor.Role == user.RoleAdmin || b.BidderID == actor.ID || b.PropertyOwnerID() == actor.ID
}

func (s *Service) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, PropertyListNamespace); err != nil {
		s.logger.Warn("failed to invalidate property cache", "error", err)
	}
}
