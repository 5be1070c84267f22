package testutil

import (
	"context"
	"time"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/oauth"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/dimitrije/spacebook-api/internal/sse"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreateFromOAuth(ctx context.Context, info *oauth.UserInfo) (*models.User, error) {
	args := m.Called(ctx, info)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	user, _ := args.Get(0).(*models.User)
	return user, args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, id uuid.UUID, name string) (*models.User, error) {
	args := m.Called(ctx, id, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTokenService mocks the TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) StoreRefreshToken(ctx context.Context, userID uuid.UUID, tokenHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, tokenHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) ValidateRefreshToken(ctx context.Context, tokenHash string) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockTokenService) RotateRefreshToken(ctx context.Context, userID uuid.UUID, oldHash, newHash string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, oldHash, newHash, expiresAt)
	return args.Error(0)
}

func (m *MockTokenService) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	args := m.Called(ctx, tokenHash)
	return args.Error(0)
}

func (m *MockTokenService) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockJWTService mocks the JWTService
type MockJWTService struct {
	mock.Mock
}

func (m *MockJWTService) GenerateTokenPair(userID uuid.UUID, email, role string) (*services.TokenPair, error) {
	args := m.Called(userID, email, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.TokenPair), args.Error(1)
}

func (m *MockJWTService) ValidateRefreshToken(token string) (uuid.UUID, error) {
	args := m.Called(token)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockJWTService) RefreshExpiry() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}

// MockSpaceService mocks the SpaceService
type MockSpaceService struct {
	mock.Mock
}

func (m *MockSpaceService) Create(ctx context.Context, in services.CreateSpaceInput) (*models.Space, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Space), args.Error(1)
}

func (m *MockSpaceService) Resolve(ctx context.Context, idOrSlug string) (*models.Space, error) {
	args := m.Called(ctx, idOrSlug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Space), args.Error(1)
}

func (m *MockSpaceService) List(ctx context.Context) ([]models.Space, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Space), args.Error(1)
}

func (m *MockSpaceService) Update(ctx context.Context, id uuid.UUID, in services.UpdateSpaceInput) (*models.Space, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Space), args.Error(1)
}

func (m *MockSpaceService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSpaceService) Status(ctx context.Context, spaceID uuid.UUID, at time.Time) (booking.Availability, error) {
	args := m.Called(ctx, spaceID, at)
	return args.Get(0).(booking.Availability), args.Error(1)
}

// MockReservationService mocks the ReservationService
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) reservation(args mock.Arguments) (*models.Reservation, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Reservation), args.Error(1)
}

func (m *MockReservationService) Create(ctx context.Context, actor booking.Actor, in services.CreateReservationInput) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, in))
}

func (m *MockReservationService) Update(ctx context.Context, actor booking.Actor, id uuid.UUID, in services.UpdateReservationInput) (*models.Reservation, *models.Reservation, error) {
	args := m.Called(ctx, actor, id, in)
	var updated, previous *models.Reservation
	if v := args.Get(0); v != nil {
		updated = v.(*models.Reservation)
	}
	if v := args.Get(1); v != nil {
		previous = v.(*models.Reservation)
	}
	return updated, previous, args.Error(2)
}

func (m *MockReservationService) Delete(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, id))
}

func (m *MockReservationService) Approve(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, id))
}

func (m *MockReservationService) Reject(ctx context.Context, actor booking.Actor, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, actor, id))
}

func (m *MockReservationService) GetDetailed(ctx context.Context, id uuid.UUID) (*models.Reservation, error) {
	return m.reservation(m.Called(ctx, id))
}

func (m *MockReservationService) List(ctx context.Context, viewer booking.Actor, filter services.ReservationFilter) ([]models.Reservation, error) {
	args := m.Called(ctx, viewer, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Reservation), args.Error(1)
}

// MockTimelineService mocks the TimelineService
type MockTimelineService struct {
	mock.Mock
}

func (m *MockTimelineService) Day(ctx context.Context, viewer booking.Actor, q services.TimelineQuery) (*services.DayTimeline, error) {
	args := m.Called(ctx, viewer, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DayTimeline), args.Error(1)
}

// MockDashboardService mocks the DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Home(ctx context.Context, viewer booking.Actor, date, at time.Time) (*services.Home, error) {
	args := m.Called(ctx, viewer, date, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Home), args.Error(1)
}

// MockNotifier mocks the EmailService
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) IsConfigured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockNotifier) SendReservationDecision(ctx context.Context, r *models.Reservation, organizer *models.User, space *models.Space) error {
	args := m.Called(ctx, r, organizer, space)
	return args.Error(0)
}

// MockHub mocks the SSE hub
type MockHub struct {
	mock.Mock
}

func (m *MockHub) Register(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) Unregister(client *sse.Client) {
	m.Called(client)
}

func (m *MockHub) SubscribeToSpace(clientID string, userID, spaceID uuid.UUID) bool {
	args := m.Called(clientID, userID, spaceID)
	return args.Bool(0)
}

func (m *MockHub) UnsubscribeFromSpace(clientID string, userID, spaceID uuid.UUID) bool {
	args := m.Called(clientID, userID, spaceID)
	return args.Bool(0)
}

func (m *MockHub) BroadcastReservation(eventType string, r *models.Reservation, changedBy uuid.UUID) {
	m.Called(eventType, r, changedBy)
}

// MockOAuthProvider mocks an OAuth provider
type MockOAuthProvider struct {
	mock.Mock
}

func (m *MockOAuthProvider) GetConsentURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*oauth.UserInfo, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth.UserInfo), args.Error(1)
}

func (m *MockOAuthProvider) Name() string {
	args := m.Called()
	return args.String(0)
}
