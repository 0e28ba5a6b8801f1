package bid

import (
	"time"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/user"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

// PropertySummary is the property projection embedded in bid views
type PropertySummary struct {
	ID     uuid.UUID `json:"id"`
	Title  string    `json:"title"`
	Price  float64   `json:"price"`
	Status string    `json:"status"`
}

type Bid struct {
	ID         uuid.UUID        `json:"id"`
	PropertyID uuid.UUID        `json:"propertyId"`
	Property   *PropertySummary `json:"property,omitempty"`
	BidderID   uuid.UUID        `json:"bidderId"`
	Bidder     *user.Summary    `json:"bidder,omitempty"`
	Amount     float64          `json:"amount"`
	Message    string           `json:"message,omitempty"`
	Status     Status           `json:"status"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`

	// owner of the bid's property, used for access checks only
	propertyOwnerID uuid.UUID
}

// PropertyOwnerID returns the owner of the bid's property
func (b *Bid) PropertyOwnerID() uuid.UUID {
	return b.propertyOwnerID
}

// PropertyState is what bid creation needs to know about the target property
type PropertyState struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Status  string
}

// NewBid holds the fields of a bid about to be inserted
type NewBid struct {
	PropertyID uuid.UUID
	BidderID   uuid.UUID
	Amount     float64
	Message    string
}

// ListFilter scopes a bid listing. Non-admin listings are limited to bids the
// actor placed or that target the actor's properties.
type ListFilter struct {
	ActorID     uuid.UUID
	Admin       bool
	PropertyIDs []uuid.UUID
}
