package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the users table row
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                         uuid.UUID  `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Name                       string     `bun:"name,notnull"`
	Email                      string     `bun:"email,notnull,unique"`
	PasswordHash               string     `bun:"password_hash,notnull"`
	Role                       string     `bun:"role,notnull"`
	IsVerified                 bool       `bun:"is_verified,notnull,default:false"`
	VerificationToken          *string    `bun:"verification_token"`
	VerificationTokenExpiresAt *time.Time `bun:"verification_token_expires_at"`
	ResetPasswordTokenHash     *string    `bun:"reset_password_token_hash"`
	ResetPasswordExpiresAt     *time.Time `bun:"reset_password_expires_at"`
	CreatedAt                  time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt                  time.Time  `bun:"updated_at,notnull,default:current_timestamp"`
}

// Property is the properties table row. Location is flattened into columns
// and features are stored as jsonb.
type Property struct {
	bun.BaseModel `bun:"table:properties,alias:property"`

	ID          uuid.UUID      `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	OwnerID     uuid.UUID      `bun:"owner_id,type:uuid,notnull"`
	Owner       *User          `bun:"rel:belongs-to,join:owner_id=id"`
	Title       string         `bun:"title,notnull"`
	Description string         `bun:"description,notnull"`
	Type        string         `bun:"type,notnull"`
	Status      string         `bun:"status,notnull,default:'available'"`
	Price       float64        `bun:"price,notnull"`
	Address     string         `bun:"address,notnull"`
	City        string         `bun:"city,notnull"`
	State       string         `bun:"state,notnull"`
	ZipCode     string         `bun:"zip_code,notnull"`
	Country     string         `bun:"country,notnull"`
	Images      []string       `bun:"images,array,notnull,default:'{}'"`
	Features    map[string]any `bun:"features,type:jsonb,notnull,default:'{}'"`
	BidIDs      []string       `bun:"bid_ids,type:uuid[],array,notnull,default:'{}'"`
	CreatedAt   time.Time      `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time      `bun:"updated_at,notnull,default:current_timestamp"`
}

// Bid is the bids table row
type Bid struct {
	bun.BaseModel `bun:"table:bids,alias:bid"`

	ID         uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	PropertyID uuid.UUID `bun:"property_id,type:uuid,notnull"`
	Property   *Property `bun:"rel:belongs-to,join:property_id=id"`
	BidderID   uuid.UUID `bun:"bidder_id,type:uuid,notnull"`
	Bidder     *User     `bun:"rel:belongs-to,join:bidder_id=id"`
	Amount     float64   `bun:"amount,notnull"`
	Message    string    `bun:"message,nullzero"`
	Status     string    `bun:"status,notnull,default:'pending'"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt  time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}
