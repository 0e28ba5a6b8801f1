package admin

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/estatebid/estatebid-api/internal/apperror"
	"github.com/estatebid/estatebid-api/internal/bid"
	"github.com/estatebid/estatebid-api/internal/httputil"
	"github.com/estatebid/estatebid-api/internal/logging"
	"github.com/estatebid/estatebid-api/internal/property"
	"github.com/estatebid/estatebid-api/internal/user"
)

const recentLimit = 5

var ErrDeleteSelf = apperror.Forbidden("you cannot delete your own account")

type UserStore interface {
	List(ctx context.Context, filter user.ListFilter) ([]user.User, int64, error)
	UpdateAdminFields(ctx context.Context, id uuid.UUID, update user.AdminUpdate) (*user.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) ([]user.RoleCount, error)
	Recent(ctx context.Context, n int) ([]user.User, error)
}

type PropertyStats interface {
	Count(ctx context.Context) (int64, error)
	CountByType(ctx context.Context) ([]property.TypeCount, error)
	CountByStatus(ctx context.Context) ([]property.StatusCount, error)
	Recent(ctx context.Context, n int) ([]property.Property, error)
}

type BidCounter interface {
	Count(ctx context.Context) (int64, error)
}

type Invalidator interface {
	Invalidate(ctx context.Context, namespace string) error
}

type Overview struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalProperties int64 `json:"totalProperties"`
	TotalBids       int64 `json:"totalBids"`
}

type Statistics struct {
	Overview           Overview            `json:"overview"`
	UsersByRole        map[string]int64    `json:"usersByRole"`
	PropertiesByType   map[string]int64    `json:"propertiesByType"`
	PropertiesByStatus map[string]int64    `json:"propertiesByStatus"`
	RecentUsers        []user.User         `json:"recentUsers"`
	RecentProperties   []property.Property `json:"recentProperties"`
}

type UserPage struct {
	Users      []user.User         `json:"users"`
	Pagination httputil.Pagination `json:"pagination"`
}

type Service struct {
	users      UserStore
	properties PropertyStats
	bids       BidCounter
	cache      Invalidator
	logger     *logging.Logger
}

func NewService(users UserStore, properties PropertyStats, bids BidCounter, cache Invalidator, logger *logging.Logger) *Service {
	return &Service{
		users:      users,
		properties: properties,
		bids:       bids,
		cache:      cache,
		logger:     logger,
	}
}

// Statistics gathers the dashboard figures. The queries are independent and
// run concurrently.
func (s *Service) Statistics(ctx context.Context) (*Statistics, error) {
	var (
		stats    Statistics
		byRole   []user.RoleCount
		byType   []property.TypeCount
		byStatus []property.StatusCount
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		stats.Overview.TotalUsers, err = s.users.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Overview.TotalProperties, err = s.properties.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.Overview.TotalBids, err = s.bids.Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		byRole, err = s.users.CountByRole(ctx)
		return err
	})
	g.Go(func() (err error) {
		byType, err = s.properties.CountByType(ctx)
		return err
	})
	g.Go(func() (err error) {
		byStatus, err = s.properties.CountByStatus(ctx)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentUsers, err = s.users.Recent(ctx, recentLimit)
		return err
	})
	g.Go(func() (err error) {
		stats.RecentProperties, err = s.properties.Recent(ctx, recentLimit)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	stats.UsersByRole = make(map[string]int64, len(byRole))
	for _, c := range byRole {
		stats.UsersByRole[string(c.Role)] = c.Count
	}
	stats.PropertiesByType = make(map[string]int64, len(byType))
	for _, c := range byType {
		stats.PropertiesByType[string(c.Type)] = c.Count
	}
	stats.PropertiesByStatus = make(map[string]int64, len(byStatus))
	for _, c := range byStatus {
		stats.PropertiesByStatus[string(c.Status)] = c.Count
	}

	return &stats, nil
}

// ListUsers returns one page of users, newest first
func (s *Service) ListUsers(ctx context.Context, filter user.ListFilter) (*UserPage, error) {
	if filter.Role != "" && !filter.Role.Valid() {
		return nil, apperror.Validation("invalid role")
	}

	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &UserPage{
		Users:      users,
		Pagination: httputil.NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// UpdateUser changes a user's role or verification flag
func (s *Service) UpdateUser(ctx context.Context, id uuid.UUID, update user.AdminUpdate) (*user.User, error) {
	if update.Role != nil && !update.Role.Valid() {
		return nil, apperror.Validation("invalid role")
	}

	updated, err := s.users.UpdateAdminFields(ctx, id, update)
	if err != nil {
		return nil, err
	}

	logging.GetLoggerFromContext(ctx).Info("user updated by admin", "user_id", id)
	return updated, nil
}

// DeleteUser removes a user with their listings and bids. Admins cannot
// delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor *user.User, id uuid.UUID) error {
	if actor.ID == id {
		return ErrDeleteSelf
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx, bid.PropertyListNamespace); err != nil {
		s.logger.Warn("failed to invalidate property cache", "error", err)
	}

	logging.GetLoggerFromContext(ctx).Info("user deleted by admin",
		"user_id", id,
		"actor_id", actor.ID,
	)
	return nil
}
