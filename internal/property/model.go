package property

import (
	"time"

	"github.com/google/uuid"

	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/user"
)

type Type string

const (
	TypeHouse      Type = "house"
	TypeApartment  Type = "apartment"
	TypeLand       Type = "land"
	TypeCommercial Type = "commercial"
	TypeCar        Type = "car"
	TypeOther      Type = "other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeHouse, TypeApartment, TypeLand, TypeCommercial, TypeCar, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusAvailable Status = "available"
	StatusPending   Status = "pending"
	StatusSold      Status = "sold"
	StatusRented    Status = "rented"
)

func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusPending, StatusSold, StatusRented:
		return true
	}
	return false
}

type Location struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

type Property struct {
	ID          uuid.UUID     `json:"id"`
	OwnerID     uuid.UUID     `json:"ownerId"`
	Owner       *user.Summary `json:"owner,omitempty"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Type        Type          `json:"type"`
	Status      Status        `json:"status"`
	Price       float64       `json:"price"`
	Location    Location      `json:"location"`
	Images      []string      `json:"images"`
	Features    Features      `json:"features"`
	BidIDs      []uuid.UUID   `json:"bidIds"`
	Bids        []bid.Bid     `json:"bids,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewProperty holds the fields of a listing about to be inserted
type NewProperty struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Type        Type
	Price       float64
	Location    Location
	Images      []string
	Features    Features
}

// Patch is a partial update. Nil fields are left unchanged and Images are
// appended to the existing list.
type Patch struct {
	Title       *string
	Description *string
	Type        *Type
	Status      *Status
	Price       *float64
	Location    *Location
	Features    Features
	Images      []string
}

// Filter narrows the public listing
type Filter struct {
	Type     Type
	Status   Status
	City     string
	State    string
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Page     int
	Limit    int
}

// TypeCount is one row of the properties-by-type breakdown
type TypeCount struct {
	Type  Type  `json:"type" bun:"type"`
	Count int64 `json:"count" bun:"count"`
}

// StatusCount is one row of the properties-by-status breakdown
type StatusCount struct {
	Status Status `json:"status" bun:"status"`
	Count  int64  `json:"count" bun:"count"`
}
