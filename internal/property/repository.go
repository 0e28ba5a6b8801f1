package property

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/database"
	"github.com/estatebid/estatebid-api/internal/user"
)

var ErrNotFound = apperror.NotFound("property not found")

type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a listing and returns it with its owner summary
func (r *Repository) Create(ctx context.Context, in NewProperty) (*Property, error) {
	images := in.Images
	if images == nil {
		images = []string{}
	}

	dbProperty := &database.Property{
		ID:          uuid.New(),
		OwnerID:     in.OwnerID,
		Title:       in.Title,
		Description: in.Description,
		Type:        string(in.Type),
		Status:      string(StatusAvailable),
		Price:       in.Price,
		Address:     in.Location.Address,
		City:        in.Location.City,
		State:       in.Location.State,
		ZipCode:     in.Location.ZipCode,
		Country:     in.Location.Country,
		Images:      images,
		Features:    in.Features.toDB(),
		BidIDs:      []string{},
	}

	if _, err := r.db.NewInsert().Model(dbProperty).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert property: %w", err)
	}

	return r.GetByID(ctx, dbProperty.ID)
}

// GetByID loads a listing with its owner summary
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Property, error) {
	dbProperty := new(database.Property)
	err := r.db.NewSelect().
		Model(dbProperty).
		Relation("Owner").
		Where("property.id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return mapDBPropertyToModel(dbProperty), nil
}

// List returns one page of listings matching filter, newest first, and the
// total number of matches
func (r *Repository) List(ctx context.Context, filter Filter) ([]Property, int64, error) {
	var rows []database.Property

	q := r.db.NewSelect().
		Model(&rows).
		Relation("Owner").
		Order("property.created_at DESC", "property.id DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit)

	if filter.Type != "" {
		q = q.Where("property.type = ?", string(filter.Type))
	}
	if filter.Status != "" {
		q = q.Where("property.status = ?", string(filter.Status))
	}
	if city := strings.TrimSpace(filter.City); city != "" {
		q = q.Where("property.city ILIKE ?", database.ContainsPattern(city))
	}
	if state := strings.TrimSpace(filter.State); state != "" {
		q = q.Where("property.state ILIKE ?", database.ContainsPattern(state))
	}
	if filter.MinPrice != nil {
		q = q.Where("property.price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("property.price <= ?", *filter.MaxPrice)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		q = q.Where(database.SearchVector+" @@ plainto_tsquery('english', ?)", search)
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list properties: %w", err)
	}

	return mapDBProperties(rows), int64(total), nil
}

// ListByOwner returns every listing of ownerID, newest first
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Property, error) {
	var rows []database.Property
	if err := r.db.NewSelect().
		Model(&rows).
		Relation("Owner").
		Where("property.owner_id = ?", ownerID).
		Order("property.created_at DESC", "property.id DESC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list owner properties: %w", err)
	}
	return mapDBProperties(rows), nil
}

// Update applies patch. Images are appended to the stored list.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	q := r.db.NewUpdate().
		Model((*database.Property)(nil)).
		Set("updated_at = NOW()").
		Where("id = ?", id)

	if patch.Title != nil {
		q = q.Set("title = ?", *patch.Title)
	}
	if patch.Description != nil {
		q = q.Set("description = ?", *patch.Description)
	}
	if patch.Type != nil {
		q = q.Set("type = ?", string(*patch.Type))
	}
	reopening := patch.Status != nil && *patch.Status == StatusAvailable
	if patch.Status != nil {
		q = q.Set("status = ?", string(*patch.Status))
	}
	if reopening {
		q = q.Where("NOT EXISTS (SELECT 1 FROM bids AS b WHERE b.property_id = property.id AND b.status = ?)", "accepted")
	}
	if patch.Price != nil {
		q = q.Set("price = ?", *patch.Price)
	}
	if loc := patch.Location; loc != nil {
		q = q.Set("address = ?", loc.Address).
			Set("city = ?", loc.City).
			Set("state = ?", loc.State).
			Set("zip_code = ?", loc.ZipCode).
			Set("country = ?", loc.Country)
	}
	if patch.Features != nil {
		data, err := json.Marshal(patch.Features.toDB())
		if err != nil {
			return fmt.Errorf("failed to encode features: %w", err)
		}
		q = q.Set("features = ?::jsonb", string(data))
	}
	if len(patch.Images) > 0 {
		q = q.Set("images = images || ?", pgdialect.Array(patch.Images))
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update property: %w", err)
	}

	err = requireAffected(result)
	if errors.Is(err, ErrNotFound) && reopening {
		exists, existsErr := r.db.NewSelect().
			Model((*database.Property)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if existsErr != nil {
			return fmt.Errorf("failed to check property: %w", existsErr)
		}
		if exists {
			return ErrAcceptedBid
		}
	}
	return err
}

// HasAcceptedBid reports whether any bid on the property has been accepted
func (r *Repository) HasAcceptedBid(ctx context.Context, id uuid.UUID) (bool, error) {
	exists, err := r.db.NewSelect().
		Model((*database.Bid)(nil)).
		Where("property_id = ?", id).
		Where("status = ?", "accepted").
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check accepted bids: %w", err)
	}
	return exists, nil
}

// Delete removes the property's bids and then the property in one transaction
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*database.Bid)(nil)).
			Where("property_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete property bids: %w", err)
		}

		result, err := tx.NewDelete().
			Model((*database.Property)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to delete property: %w", err)
		}

		return requireAffected(result)
	})
}

// Count returns the total number of listings
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*database.Property)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count properties: %w", err)
	}
	return int64(n), nil
}

func (r *Repository) CountByType(ctx context.Context) ([]TypeCount, error) {
	var rows []TypeCount
	if err := r.db.NewSelect().
		Model((*database.Property)(nil)).
		Column("type").
		ColumnExpr("count(*) AS count").
		Group("type").
		Order("type").
		Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to count properties by type: %w", err)
	}
	return rows, nil
}

func (r *Repository) CountByStatus(ctx context.Context) ([]StatusCount, error) {
	var rows []StatusCount
	if err := r.db.NewSelect().
		Model((*database.Property)(nil)).
		Column("status").
		ColumnExpr("count(*) AS count").
		Group("status").
		Order("status").
		Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to count properties by status: %w", err)
	}
	return rows, nil
}

// Recent returns the n newest listings with owner summaries
func (r *Repository) Recent(ctx context.Context, n int) ([]Property, error) {
	var rows []database.Property
	if err := r.db.NewSelect().
		Model(&rows).
		Relation("Owner").
		Order("property.created_at DESC", "property.id DESC").
		Limit(n).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load recent properties: %w", err)
	}
	return mapDBProperties(rows), nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func mapDBProperties(rows []database.Property) []Property {
	out := make([]Property, 0, len(rows))
	for i := range rows {
		out = append(out, *mapDBPropertyToModel(&rows[i]))
	}
	return out
}

func mapDBPropertyToModel(db *database.Property) *Property {
	p := &Property{
		ID:          db.ID,
		OwnerID:     db.OwnerID,
		Title:       db.Title,
		Description: db.Description,
		Type:        Type(db.Type),
		Status:      Status(db.Status),
		Price:       db.Price,
		Location: Location{
			Address: db.Address,
			City:    db.City,
			State:   db.State,
			ZipCode: db.ZipCode,
			Country: db.Country,
		},
		Images:    db.Images,
		Features:  featuresFromDB(db.Features),
		BidIDs:    make([]uuid.UUID, 0, len(db.BidIDs)),
		CreatedAt: db.CreatedAt,
		UpdatedAt: db.UpdatedAt,
	}

	if p.Images == nil {
		p.Images = []string{}
	}

	for _, raw := range db.BidIDs {
		if id, err := uuid.Parse(raw); err == nil {
			p.BidIDs = append(p.BidIDs, id)
		}
	}

	if db.Owner != nil {
		p.Owner = user.MapFromDB(db.Owner).Summary()
	}

	return p
}
