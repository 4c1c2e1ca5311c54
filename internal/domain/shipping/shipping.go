package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no shipping profile matches the lookup.
var ErrNotFound = errors.New("shipping profile not found")

// ValidationError indicates a required shipping field was missing.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// Profile is a user's shipping destination. Each user has at most one
// current profile; creating a new one supersedes the old.
type Profile struct {
	ID         string
	UserID     string
	OrderID    string
	FullName   string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Fields is the writable subset of a profile.
type Fields struct {
	OrderID    string
	FullName   string
	Email      string
	Phone      string
	Address    string
	City       string
	State      string
	PostalCode string
	Country    string
}

// Validate returns a ValidationError for the first missing required field.
// State and OrderID are optional.
func (f Fields) Validate() error {
	required := []struct{ name, value string }{
		{"fullName", f.FullName},
		{"email", f.Email},
		{"phone", f.Phone},
		{"address", f.Address},
		{"city", f.City},
		{"postalCode", f.PostalCode},
		{"country", f.Country},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.name}
		}
	}
	return nil
}

// Repository defines persistence operations for shipping profiles.
// Upsert keys on user id: one live profile per user. Update matches both the
// profile id and the owning user id and reports ErrNotFound when either does
// not match.
type Repository interface {
	Upsert(ctx context.Context, p *Profile) error
	Update(ctx context.Context, userID, id string, fields Fields) (*Profile, error)
	GetByUser(ctx context.Context, userID string) (*Profile, error)
	GetByOrder(ctx context.Context, orderID string) (*Profile, error)
	ListAll(ctx context.Context) ([]Profile, error)
}
