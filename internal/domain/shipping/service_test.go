package shipping

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockRepo struct {
	byUser    map[string]*Profile
	upsertErr error
}

func newRepo() *mockRepo {
	return &mockRepo{byUser: make(map[string]*Profile)}
}

func (m *mockRepo) Upsert(_ context.Context, p *Profile) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.byUser[p.UserID] = p
	return nil
}

func (m *mockRepo) Update(_ context.Context, userID, id string, fields Fields) (*Profile, error) {
	p, ok := m.byUser[userID]
	if !ok || p.ID != id {
		return nil, ErrNotFound
	}
	p.OrderID = fields.OrderID
	p.FullName = fields.FullName
	p.Email = fields.Email
	p.Phone = fields.Phone
	p.Address = fields.Address
	p.City = fields.City
	p.State = fields.State
	p.PostalCode = fields.PostalCode
	p.Country = fields.Country
	return p, nil
}

func (m *mockRepo) GetByUser(_ context.Context, userID string) (*Profile, error) {
	p, ok := m.byUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

func (m *mockRepo) GetByOrder(_ context.Context, orderID string) (*Profile, error) {
	for _, p := range m.byUser {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListAll(_ context.Context) ([]Profile, error) {
	var out []Profile
	for _, p := range m.byUser {
		out = append(out, *p)
	}
	return out, nil
}

// --- Helpers ---

func validFields() Fields {
	return Fields{
		FullName:   "Ada Lovelace",
		Email:      "ada@example.com",
		Phone:      "+441234567890",
		Address:    "12 Analytical Row",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}
}

// --- Tests ---

func TestFieldsValidate(t *testing.T) {
	require.NoError(t, validFields().Validate())

	// State and OrderID are optional.
	f := validFields()
	f.State = ""
	f.OrderID = ""
	require.NoError(t, f.Validate())
}

func TestFieldsValidate_MissingRequired(t *testing.T) {
	tests := []struct {
		field string
		mut   func(*Fields)
	}{
		{"fullName", func(f *Fields) { f.FullName = "" }},
		{"email", func(f *Fields) { f.Email = "" }},
		{"phone", func(f *Fields) { f.Phone = "" }},
		{"address", func(f *Fields) { f.Address = "" }},
		{"city", func(f *Fields) { f.City = "" }},
		{"postalCode", func(f *Fields) { f.PostalCode = "" }},
		{"country", func(f *Fields) { f.Country = "" }},
	}
	for _, tt := range tests {
		f := validFields()
		tt.mut(&f)

		var verr *ValidationError
		require.ErrorAs(t, f.Validate(), &verr, tt.field)
		assert.Equal(t, tt.field, verr.Field)
	}
}

func TestCreate(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	p, err := svc.Create(context.Background(), "u1", validFields())

	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "u1", p.UserID)
	assert.Equal(t, "Ada Lovelace", p.FullName)
}

func TestCreate_InvalidFields(t *testing.T) {
	svc := NewService(newRepo())

	f := validFields()
	f.Country = ""
	_, err := svc.Create(context.Background(), "u1", f)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestCreate_SupersedesExisting(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	first, err := svc.Create(context.Background(), "u1", validFields())
	require.NoError(t, err)

	f := validFields()
	f.FullName = "Grace Hopper"
	second, err := svc.Create(context.Background(), "u1", f)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	current, err := svc.GetByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Grace Hopper", current.FullName)
}

func TestEnsureForUser_CreatesWhenAbsent(t *testing.T) {
	svc := NewService(newRepo())

	p, err := svc.EnsureForUser(context.Background(), "u1", validFields())

	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName)
}

func TestEnsureForUser_KeepsExisting(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), "u1", validFields())
	require.NoError(t, err)

	f := validFields()
	f.FullName = "Someone Else"
	p, err := svc.EnsureForUser(context.Background(), "u1", f)

	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", p.FullName, "existing profile must not be overwritten")
}

func TestUpdate_OwnerScoped(t *testing.T) {
	repo := newRepo()
	svc := NewService(repo)

	created, err := svc.Create(context.Background(), "u1", validFields())
	require.NoError(t, err)

	f := validFields()
	f.FullName = "Renamed"
	updated, err := svc.Update(context.Background(), "u1", created.ID, f)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.FullName)

	// A different user cannot update the same profile id.
	_, err = svc.Update(context.Background(), "intruder", created.ID, f)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGetByUser_NotFound(t *testing.T) {
	svc := NewService(newRepo())

	_, err := svc.GetByUser(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}
