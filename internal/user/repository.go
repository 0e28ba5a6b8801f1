package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/database"
)

var (
	ErrNotFound       = apperror.NotFound("user not found")
	ErrDuplicateEmail = apperror.Conflict("user already exists with this email")
)

// Repository handles user data persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user into the database
func (r *Repository) Create(ctx context.Context, params CreateParams) (*User, error) {
	token := params.VerificationToken
	expiresAt := params.VerificationExpiresAt

	dbUser := &database.User{
		ID:                         uuid.New(),
		Name:                       strings.TrimSpace(params.Name),
		Email:                      NormalizeEmail(params.Email),
		PasswordHash:               params.PasswordHash,
		Role:                       string(params.Role),
		IsVerified:                 false,
		VerificationToken:          &token,
		VerificationTokenExpiresAt: &expiresAt,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "get user by email", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("email = ?", NormalizeEmail(email))
	})
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "get user by id", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("id = ?", id)
	})
}

// GetByVerificationToken retrieves an unverified user holding an unexpired token
func (r *Repository) GetByVerificationToken(ctx context.Context, token string) (*User, error) {
	return r.getOne(ctx, "get user by verification token", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("verification_token = ?", token).
			Where("verification_token_expires_at > ?", time.Now()).
			Where("is_verified = ?", false)
	})
}

// GetByResetTokenHash retrieves the user holding an unexpired reset token
func (r *Repository) GetByResetTokenHash(ctx context.Context, tokenHash string) (*User, error) {
	return r.getOne(ctx, "get user by reset token", func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.
			Where("reset_password_token_hash = ?", tokenHash).
			Where("reset_password_expires_at > ?", time.Now())
	})
}

func (r *Repository) getOne(ctx context.Context, op string, where func(*bun.SelectQuery) *bun.SelectQuery) (*User, error) {
	dbUser := new(database.User)
	err := where(r.db.NewSelect().Model(dbUser)).Limit(1).Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	return mapDBUserToModel(dbUser), nil
}

// MarkEmailAsVerified marks a user's email as verified and clears the verification token
func (r *Repository) MarkEmailAsVerified(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("is_verified = ?", true).
		Set("verification_token = NULL").
		Set("verification_token_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}

	return requireAffected(result)
}

// UpdateVerificationToken replaces the verification token of an unverified user
func (r *Repository) UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("verification_token = ?", token).
		Set("verification_token_expires_at = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("is_verified = ?", false).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update verification token: %w", err)
	}

	return requireAffected(result)
}

// SetResetToken stores a hashed reset token with its expiry
func (r *Repository) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_password_token_hash = ?", tokenHash).
		Set("reset_password_expires_at = ?", expiresAt).
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}

	return requireAffected(result)
}

// ClearResetToken removes any outstanding reset token
func (r *Repository) ClearResetToken(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_password_token_hash = NULL").
		Set("reset_password_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to clear reset token: %w", err)
	}

	return nil
}

// ResetPassword sets a new password hash and consumes the reset token in one
// statement. The token hash is part of the predicate so a token can only be
// used once.
func (r *Repository) ResetPassword(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_password_token_hash = NULL").
		Set("reset_password_expires_at = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", userID).
		Where("reset_password_token_hash = ?", tokenHash).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to reset password: %w", err)
	}

	return requireAffected(result)
}

// List returns a page of users, newest first, and the total match count
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]User, int64, error) {
	var dbUsers []database.User

	q := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset((filter.Page - 1) * filter.Limit)

	if filter.Role != "" {
		q = q.Where("role = ?", string(filter.Role))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := database.ContainsPattern(search)
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("name ILIKE ?", pattern).WhereOr("email ILIKE ?", pattern)
		})
	}

	total, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, *mapDBUserToModel(&dbUsers[i]))
	}

	return users, int64(total), nil
}

// UpdateAdminFields applies an admin update and returns the stored user
func (r *Repository) UpdateAdminFields(ctx context.Context, id uuid.UUID, update AdminUpdate) (*User, error) {
	dbUser := &database.User{ID: id}

	q := r.db.NewUpdate().
		Model(dbUser).
		Set("updated_at = NOW()").
		WherePK().
		Returning("*")

	if update.Role != nil {
		q = q.Set("role = ?", string(*update.Role))
	}
	if update.IsVerified != nil {
		q = q.Set("is_verified = ?", *update.IsVerified)
	}

	result, err := q.Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return nil, err
	}

	return mapDBUserToModel(dbUser), nil
}

// Delete removes a user together with everything that depends on it: the
// user's bids (detached from the properties that list them), every bid on the
// user's properties, and the properties themselves.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*database.User)(nil)).
			Where("id = ?", id).
			Exists(ctx)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		if !exists {
			return ErrNotFound
		}

		userBids := tx.NewSelect().
			Model((*database.Bid)(nil)).
			Column("id").
			Where("bidder_id = ?", id)

		if _, err := tx.NewUpdate().
			Model((*database.Property)(nil)).
			Set("bid_ids = ARRAY(SELECT b FROM unnest(property.bid_ids) AS b WHERE b NOT IN (?))", userBids).
			Set("updated_at = NOW()").
			Where("property.owner_id <> ?", id).
			Where("property.id IN (?)", tx.NewSelect().
				Model((*database.Bid)(nil)).
				Column("property_id").
				Where("bidder_id = ?", id)).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to detach user bids: %w", err)
		}

		ownedProperties := tx.NewSelect().
			Model((*database.Property)(nil)).
			Column("id").
			Where("owner_id = ?", id)

		if _, err := tx.NewDelete().
			Model((*database.Bid)(nil)).
			Where("bidder_id = ?", id).
			WhereOr("property_id IN (?)", ownedProperties).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete user bids: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*database.Property)(nil)).
			Where("owner_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete user properties: %w", err)
		}

		if _, err := tx.NewDelete().
			Model((*database.User)(nil)).
			Where("id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		return nil
	})
}

// Count returns the total number of users
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*database.User)(nil)).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return int64(n), nil
}

// CountByRole groups users by role
func (r *Repository) CountByRole(ctx context.Context) ([]RoleCount, error) {
	var rows []RoleCount
	err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Column("role").
		ColumnExpr("count(*) AS count").
		Group("role").
		Order("role").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to count users by role: %w", err)
	}
	return rows, nil
}

// Recent returns the n newest users
func (r *Repository) Recent(ctx context.Context, n int) ([]User, error) {
	var dbUsers []database.User
	if err := r.db.NewSelect().
		Model(&dbUsers).
		Order("created_at DESC").
		Limit(n).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to load recent users: %w", err)
	}

	users := make([]User, 0, len(dbUsers))
	for i := range dbUsers {
		users = append(users, *mapDBUserToModel(&dbUsers[i]))
	}
	return users, nil
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// NormalizeEmail lower-cases and trims an address for storage and lookup
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// MapFromDB converts a database row to the domain model
func MapFromDB(dbu *database.User) *User {
	if dbu == nil {
		return nil
	}
	return mapDBUserToModel(dbu)
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                         dbu.ID,
		Name:                       dbu.Name,
		Email:                      dbu.Email,
		PasswordHash:               dbu.PasswordHash,
		Role:                       Role(dbu.Role),
		IsVerified:                 dbu.IsVerified,
		VerificationToken:          dbu.VerificationToken,
		VerificationTokenExpiresAt: dbu.VerificationTokenExpiresAt,
		CreatedAt:                  dbu.CreatedAt,
		UpdatedAt:                  dbu.UpdatedAt,
	}
}
