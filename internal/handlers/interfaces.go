package handlers

import (
	"context"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/oauth"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/internal/sse"
	"github.com/google/uuid"
)

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error)
}

// TokenServiceInterface defines the methods used by handlers from TokenService
type TokenServiceInterface interface {
	StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error
	ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error)
	RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
}

// JWTServiceInterface defines the methods used by handlers from JWTService
type JWTServiceInterface interface {
	GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
	RefreshExpiry() time.Duration
}

// OAuthStateStore defines the methods used by handlers from oauth.StateStore
type OAuthStateStore interface {
	IssueState(ttl time.Duration) (string, error)
	ConsumeState(state string) bool
	IssueCode(userID uuid.UUID, ttl time.Duration) (string, error)
	ConsumeCode(code string) (uuid.UUID, bool)
}

// SpaceServiceInterface defines the methods used by handlers from SpaceService
type SpaceServiceInterface interface {
	Create(ctx context.Context, in services.CreateSpaceInput) (*models.Space, error)
	Resolve(ctx context.Context, idOrSlug string) (*models.Space, error)
	List(ctx context.Context) ([]models.Space, error)
	Update(ctx context.Context, id uuid.UUID, in services.UpdateSpaceInput) (*models.Space, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Status(ctx context.Context, spaceID uuid.UUID, at time.Time) (booking.Availability, error)
}

// ReservationServiceInterface defines the methods used by handlers from ReservationService
type ReservationServiceInterface interface {
	Create(ctx context.Context, actor booking.Actor, in services.CreateReservationInput) (*models.Reservation, error)
	Update(ctx context.Context, actor booking.Actor, id uuid.UUID, in services.UpdateReservationInput) (*models.Reservation, *models.Reservation, error)
	Delete(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error)
	Approve(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error)
	Reject(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error)
	GetDetailed(ctx context.Context, id uuid.UUID) (*models.Reservation, error)
	List(ctx context.Context, viewer booking.Actor, filter services.ReservationFilter) ([]models.Reservation, error)
}

// TimelineServiceInterface defines the methods used by handlers from TimelineService
type TimelineServiceInterface interface {
	Day(ctx context.Context, viewer booking.Actor, q services.TimelineQuery) (*services.DayTimeline, error)
}

// DashboardServiceInterface defines the methods used by handlers from DashboardService
type DashboardServiceInterface interface {
	Home(ctx context.Context, viewer booking.Actor, date, at time.Time) (*services.Home, error)
}

// NotifierInterface defines the methods used by handlers from EmailService
type NotifierInterface interface {
	IsConfigured() bool
	SendReservationDecision(ctx context.Context, r *models.Reservation, organizer *models.User, space *models.Space) error
}

// HubInterface defines the methods used by handlers from the SSE hub
type HubInterface interface {
	Register(client *sse.Client)
	Unregister(client *sse.Client)
	SubscribeToSpace(clientID string, userID, spaceID uuid.UUID) bool
	UnsubscribeFromSpace(clientID string, userID, spaceID uuid.UUID) bool
	BroadcastReservation(eventType string, r *models.Reservation, changedBy uuid.UUID)
}
