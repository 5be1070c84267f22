package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dimitrije/spacebook-api/internal/database"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/oauth"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email:      fmt.Sprintf("user%d@example.com", f.counter),
		Name:       fmt.Sprintf("Test User %d", f.counter),
		Provider:   "github",
		ProviderID: fmt.Sprintf("provider-%d", f.counter),
		Role:       models.RoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name, avatar_url, provider, provider_id, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, email, name, avatar_url, provider, provider_id, role, created_at, updated_at
	`, user.Email, user.Name, user.AvatarURL, user.Provider, user.ProviderID, user.Role).Scan(
		&user.ID, &user.Email, &user.Name, &user.AvatarURL,
		&user.Provider, &user.ProviderID, &user.Role, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

// AsAdmin gives the user the admin role
func AsAdmin() UserOption {
	return func(u *models.User) {
		u.Role = models.RoleAdmin
	}
}

// CreateSpace creates a test space with a unique slug
func (f *Fixtures) CreateSpace(t *testing.T, opts ...SpaceOption) *models.Space {
	t.Helper()
	f.counter++

	space := &models.Space{
		Name: fmt.Sprintf("Test Space %d", f.counter),
		Slug: fmt.Sprintf("test-space-%d", f.counter),
	}

	for _, opt := range opts {
		opt(space)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO spaces (name, slug, description, capacity, price, address)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, space.Name, space.Slug, space.Description, space.Capacity, space.Price, space.Address).Scan(
		&space.ID, &space.CreatedAt, &space.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create space: %v", err)
	}

	return space
}

// SpaceOption configures a test space
type SpaceOption func(*models.Space)

// WithSpaceName sets the space name and slug
func WithSpaceName(name, slug string) SpaceOption {
	return func(s *models.Space) {
		s.Name = name
		s.Slug = slug
	}
}

// WithCapacity sets the space capacity
func WithCapacity(capacity int) SpaceOption {
	return func(s *models.Space) {
		s.Capacity = &capacity
	}
}

// CreateReservation inserts a reservation directly, bypassing the overlap
// check. An approved reservation still hits the exclusion constraint.
func (f *Fixtures) CreateReservation(t *testing.T, space *models.Space, organizer *models.User, start, end time.Time, status models.ReservationStatus) *models.Reservation {
	t.Helper()
	f.counter++

	r := &models.Reservation{
		SpaceID:  space.ID,
		UserID:   organizer.ID,
		Name:     fmt.Sprintf("Test Reservation %d", f.counter),
		StartsAt: start,
		EndsAt:   end,
		Status:   status,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO reservations (space_id, user_id, name, starts_at, ends_at, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, r.SpaceID, r.UserID, r.Name, r.StartsAt, r.EndsAt, r.Status).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		t.Fatalf("failed to create reservation: %v", err)
	}

	return r
}

// CreateRefreshToken creates a test refresh token
func (f *Fixtures) CreateRefreshToken(t *testing.T, userID uuid.UUID, tokenHash string, expiresAt time.Time) {
	t.Helper()
	ctx := context.Background()

	_, err := f.db.Pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at)
		VALUES ($1, $2, $3)
	`, userID, tokenHash, expiresAt)
	if err != nil {
		t.Fatalf("failed to create refresh token: %v", err)
	}
}

// OAuthUserInfo creates test OAuth user info
func OAuthUserInfo(email, name, provider, id string) *oauth.UserInfo {
	return &oauth.UserInfo{
		Email:     email,
		Name:      name,
		AvatarURL: "https://example.com/avatar.png",
		ID:        id,
		Provider:  provider,
	}
}
