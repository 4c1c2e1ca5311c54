package shipping

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// Service implements shipping profile management.
type Service struct {
	profiles Repository
}

// NewService creates a shipping Service.
func NewService(profiles Repository) *Service {
	return &Service{profiles: profiles}
}

// Create validates the fields and writes the user's profile, superseding any
// existing one.
func (s *Service) Create(ctx context.Context, userID string, fields Fields) (*Profile, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	p := profileFromFields(userID, fields)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, errors.Wrap(err, "upsert shipping profile")
	}
	return s.profiles.GetByUser(ctx, userID)
}

// EnsureForUser creates a profile only when the user has none. An existing
// profile is returned untouched; it is never silently overwritten.
func (s *Service) EnsureForUser(ctx context.Context, userID string, fields Fields) (*Profile, error) {
	existing, err := s.profiles.GetByUser(ctx, userID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, errors.Wrap(err, "get shipping profile")
	}
	return s.Create(ctx, userID, fields)
}

// Update edits the profile identified by id, scoped to the owning user: a
// mismatched owner reads as ErrNotFound.
func (s *Service) Update(ctx context.Context, userID, id string, fields Fields) (*Profile, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return s.profiles.Update(ctx, userID, id, fields)
}

// GetByUser returns the user's current profile or ErrNotFound.
func (s *Service) GetByUser(ctx context.Context, userID string) (*Profile, error) {
	return s.profiles.GetByUser(ctx, userID)
}

// GetByOrder returns the profile attached to an order or ErrNotFound.
func (s *Service) GetByOrder(ctx context.Context, orderID string) (*Profile, error) {
	return s.profiles.GetByOrder(ctx, orderID)
}

// ListAll returns every profile, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Profile, error) {
	return s.profiles.ListAll(ctx)
}

func profileFromFields(userID string, fields Fields) *Profile {
	return &Profile{
		ID:         uuid.New().String(),
		UserID:     userID,
		OrderID:    fields.OrderID,
		FullName:   fields.FullName,
		Email:      fields.Email,
		Phone:      fields.Phone,
		Address:    fields.Address,
		City:       fields.City,
		State:      fields.State,
		PostalCode: fields.PostalCode,
		Country:    fields.Country,
	}
}
