package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ahmetcoskunkizilkaya/user-directory/internal/dto"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/models"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/query"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/sequence"
	"github.com/ahmetcoskunkizilkaya/user-directory/internal/store"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already exists")
)

var tracer = otel.Tracer("user-directory/services")

type UserService struct {
	store        store.UserStore
	guardian     *sequence.Guardian
	maxPageLimit int
}

func NewUserService(s store.UserStore, guardian *sequence.Guardian, maxPageLimit int) *UserService {
	return &UserService{store: s, guardian: guardian, maxPageLimit: maxPageLimit}
}

// UserPage is one page of a filtered, sorted user listing.
type UserPage struct {
	Users      []models.User
	Total      int64
	Page       query.PageRequest
	TotalPages int64
}

// List resolves raw parameters and reads one page plus the matching total.
// Invalid pagination returns query.ErrInvalidPage or query.ErrInvalidLimit
// without touching the store.
func (s *UserService) List(ctx context.Context, params query.Params) (*UserPage, error) {
	q, err := query.Resolve(params, s.maxPageLimit)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "users.List")
	defer span.End()
	span.SetAttributes(
		attribute.Int("page", q.Page.Page),
		attribute.Int("limit", q.Page.Limit),
		attribute.String("sort", string(q.Sort.Field)),
	)

	users, total, err := s.store.List(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []models.User{}
	}
	return &UserPage{
		Users:      users,
		Total:      total,
		Page:       q.Page,
		TotalPages: query.TotalPages(total, q.Page.Limit),
	}, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return u, nil
}

// Create validates req and inserts a new user. An identity collision caused
// by a lagging sequence is repaired once and retried.
func (s *UserService) Create(ctx context.Context, req *dto.UserInput) (*models.User, error) {
	in, err := normalize(req, false)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "users.Create")
	defer span.End()

	if err := s.ensureEmailFree(ctx, *in.email, 0); err != nil {
		return nil, err
	}

	u := &models.User{
		FirstName: *in.firstName,
		LastName:  *in.lastName,
		Email:     *in.email,
		Gender:    *in.gender,
		Phone:     *in.phone,
	}
	err = s.guardian.RepairAndRetry(ctx, func(ctx context.Context) error {
		return s.store.Insert(ctx, u)
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		span.RecordError(err)
		return nil, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.Int64("user.id", u.ID))
	slog.InfoContext(ctx, "user created", "user_id", u.ID)
	return u, nil
}

// Update applies only the supplied fields. An empty request returns the
// stored record unchanged.
func (s *UserService) Update(ctx context.Context, id int64, req *dto.UserInput) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "users.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("user.id", id))

	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	in, err := normalize(req, true)
	if err != nil {
		return nil, err
	}
	if in.email != nil {
		if err := s.ensureEmailFree(ctx, *in.email, id); err != nil {
			return nil, err
		}
	}

	u, err := s.store.Update(ctx, id, store.Changes{
		FirstName: in.firstName,
		LastName:  in.lastName,
		Email:     in.email,
		Gender:    in.gender,
		Phone:     in.phone,
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrUserNotFound
	case errors.Is(err, store.ErrDuplicateEmail):
		return nil, ErrEmailTaken
	case err != nil:
		span.RecordError(err)
		return nil, fmt.Errorf("update user %d: %w", id, err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user %d: %w", id, err)
	}
	slog.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}

// ensureEmailFree fails with ErrEmailTaken when another user owns email.
// selfID is excluded from the check.
func (s *UserService) ensureEmailFree(ctx context.Context, email string, selfID int64) error {
	existing, err := s.store.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("check email: %w", err)
	case existing.ID != selfID:
		return ErrEmailTaken
	}
	return nil
}
