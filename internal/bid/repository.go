package bid

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/database"
	"github.com/estatebid/estatebid-api/internal/user"
)

var (
	ErrNotFound            = apperror.NotFound("bid not found")
	ErrPropertyNotFound    = apperror.NotFound("property not found")
	ErrPropertyUnavailable = apperror.InvalidState("property is not available for bidding")
	ErrDuplicatePending    = apperror.Conflict("you already have a pending bid on this property")
	ErrNotPending          = apperror.InvalidState("only pending bids can change status")
)

const propertyAvailable = "available"

// Repository handles bid persistence. Operations that touch both bids and
// the owning property run in a single transaction.
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// GetPropertyState loads the owner and status of a property
func (r *Repository) GetPropertyState(ctx context.Context, propertyID uuid.UUID) (*PropertyState, error) {
	p := new(database.Property)
	err := r.db.NewSelect().
		Model(p).
		Column("id", "owner_id", "status").
		Where("id = ?", propertyID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPropertyNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}

	return &PropertyState{ID: p.ID, OwnerID: p.OwnerID, Status: p.Status}, nil
}

// HasPending reports whether bidder already has a pending bid on property
func (r *Repository) HasPending(ctx context.Context, propertyID, bidderID uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Bid)(nil)).
		Where("property_id = ?", propertyID).
		Where("bidder_id = ?", bidderID).
		Where("status = ?", string(StatusPending)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check pending bids: %w", err)
	}
	return exists, nil
}

// Create inserts a pending bid and appends it to the property's bid list.
// The append only succeeds while the property is available, so a bid can
// never attach to a property whose acceptance committed first.
func (r *Repository) Create(ctx context.Context, in NewBid) (uuid.UUID, error) {
	dbBid := &database.Bid{
		ID:         uuid.New(),
		PropertyID: in.PropertyID,
		BidderID:   in.BidderID,
		Amount:     in.Amount,
		Message:    in.Message,
		Status:     string(StatusPending),
	}

	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(dbBid).Exec(ctx); err != nil {
			if database.IsUniqueViolation(err, database.PendingBidIndex) {
				return ErrDuplicatePending
			}
			return fmt.Errorf("failed to insert bid: %w", err)
		}

		result, err := tx.NewUpdate().
			Model((*database.Property)(nil)).
			Set("bid_ids = array_append(bid_ids, ?)", dbBid.ID).
			Set("updated_at = NOW()").
			Where("id = ?", in.PropertyID).
			Where("status = ?", propertyAvailable).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to link bid to property: %w", err)
		}

		return affectedOr(result, ErrPropertyUnavailable)
	})
	if err != nil {
		return uuid.Nil, err
	}

	return dbBid.ID, nil
}

// GetByID loads a bid with its bidder and property summaries
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Bid, error) {
	dbBid := new(database.Bid)
	err := r.db.NewSelect().
		Model(dbBid).
		Relation("Bidder").
		Relation("Property").
		Where("bid.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get bid: %w", err)
	}

	return mapDBBidToModel(dbBid), nil
}

// List returns bids newest first, scoped by filter
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Bid, error) {
	var dbBids []database.Bid

	q := r.db.NewSelect().
		Model(&dbBids).
		Relation("Bidder").
		Relation("Property").
		Order("bid.created_at DESC", "bid.id DESC")

	if !filter.Admin {
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("bid.bidder_id = ?", filter.ActorID).
				WhereOr("property.owner_id = ?", filter.ActorID)
		})
	}
	if len(filter.PropertyIDs) > 0 {
		q = q.Where("bid.property_id IN (?)", bun.In(filter.PropertyIDs))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list bids: %w", err)
	}

	bids := make([]Bid, 0, len(dbBids))
	for i := range dbBids {
		bids = append(bids, *mapDBBidToModel(&dbBids[i]))
	}
	return bids, nil
}

// Accept moves the property from available to pending, accepts the bid and
// rejects every other pending bid on the property, all in one transaction.
// The property update is conditional and succeeds at most once, which makes
// the property the lock holder for concurrent acceptances.
func (r *Repository) Accept(ctx context.Context, bidID, propertyID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		result, err := tx.NewUpdate().
			Model((*database.Property)(nil)).
			Set("status = ?", "pending").
			Set("updated_at = NOW()").
			Where("id = ?", propertyID).
			Where("status = ?", propertyAvailable).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to reserve property: %w", err)
		}
		if err := affectedOr(result, ErrPropertyUnavailable); err != nil {
			return err
		}

		result, err = tx.NewUpdate().
			Model((*database.Bid)(nil)).
			Set("status = ?", string(StatusAccepted)).
			Set("updated_at = NOW()").
			Where("id = ?", bidID).
			Where("property_id = ?", propertyID).
			Where("status = ?", string(StatusPending)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to accept bid: %w", err)
		}
		if err := affectedOr(result, ErrNotPending); err != nil {
			return err
		}

		if _, err := tx.NewUpdate().
			Model((*database.Bid)(nil)).
			Set("status = ?", string(StatusRejected)).
			Set("updated_at = NOW()").
			Where("property_id = ?", propertyID).
			Where("id <> ?", bidID).
			Where("status = ?", string(StatusPending)).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to reject sibling bids: %w", err)
		}

		return nil
	})
}

// Reject rejects a single pending bid
func (r *Repository) Reject(ctx context.Context, bidID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.Bid)(nil)).
		Set("status = ?", string(StatusRejected)).
		Set("updated_at = NOW()").
		Where("id = ?", bidID).
		Where("status = ?", string(StatusPending)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to reject bid: %w", err)
	}
	return affectedOr(result, ErrNotPending)
}

// Delete detaches the bid from its property and then removes it
func (r *Repository) Delete(ctx context.Context, bidID, propertyID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().
			Model((*database.Property)(nil)).
			Set("bid_ids = array_remove(bid_ids, ?)", bidID).
			Set("updated_at = NOW()").
			Where("id = ?", propertyID).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to detach bid: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*database.Bid)(nil)).
			Where("id = ?", bidID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete bid: %w", err)
		}

		return affectedOr(result, ErrNotFound)
	})
}

// Count returns the total number of bids
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*database.Bid)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count bids: %w", err)
	}
	return int64(n), nil
}

func affectedOr(result sql.Result, notAffected error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notAffected
	}
	return nil
}

func mapDBBidToModel(db *database.Bid) *Bid {
	b := &Bid{
		ID:         db.ID,
		PropertyID: db.PropertyID,
		BidderID:   db.BidderID,
		Amount:     db.Amount,
		Message:    db.Message,
		Status:     Status(db.Status),
		CreatedAt:  db.CreatedAt,
		UpdatedAt:  db.UpdatedAt,
	}

	if db.Bidder != nil {
		b.Bidder = user.MapFromDB(db.Bidder).Summary()
	}
	if db.Property != nil {
		b.Property = &PropertySummary{
			ID:     db.Property.ID,
			Title:  db.Property.Title,
			Price:  db.Property.Price,
			Status: db.Property.Status,
		}
		b.propertyOwnerID = db.Property.OwnerID
	}

	return b
}
