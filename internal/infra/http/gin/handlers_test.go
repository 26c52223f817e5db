package ginserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentora/internal/app/bus"
	"rentora/internal/app/dto"
	availabilityapp "rentora/internal/app/handlers/availability"
	bookingapp "rentora/internal/app/handlers/booking"
	propertyapp "rentora/internal/app/handlers/properties"
	authsvc "rentora/internal/app/services/auth"
	domainauth "rentora/internal/domain/auth"
	domainbooking "rentora/internal/domain/booking"
	domainuser "rentora/internal/domain/user"
	"rentora/internal/infra/config"
	"rentora/internal/infra/obs"
)

type fakeResolver struct {
	users map[string]*domainuser.User
}

func (f fakeResolver) ResolveToken(ctx context.Context, token string) (*authsvc.ResolveResult, error) {
	u, ok := f.users[token]
	if !ok {
		return nil, domainauth.ErrSessionNotFound
	}
	return &authsvc.ResolveResult{User: u}, nil
}

// recordingBus answers every message with reply and keeps what it saw.
type recordingBus struct {
	seen  []bus.Message
	reply func(msg bus.Message) (any, error)
}

func (b *recordingBus) Dispatch(ctx context.Context, msg bus.Message) (any, error) {
	b.seen = append(b.seen, msg)
	return b.reply(msg)
}

func testUser(t *testing.T, id string, role domainuser.Role) *domainuser.User {
	t.Helper()
	u, err := domainuser.NewUser(domainuser.CreateParams{
		ID:           domainuser.ID(id),
		Email:        id + "@rentora.test",
		Name:         id,
		PasswordHash: "x",
		Role:         role,
		CreatedAt:    time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return u
}

func newTestRouter(t *testing.T, commands, queries bus.Bus) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	resolver := fakeResolver{users: map[string]*domainuser.User{
		"renter-token": testUser(t, "renter-1", domainuser.RoleRenter),
		"owner-token":  testUser(t, "owner-1", domainuser.RoleOwner),
	}}
	return NewRouter(config.Config{Env: "test"}, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Auth:           AuthHandler{},
		Property:       PropertyHandler{Commands: commands, Queries: queries},
		Availability:   AvailabilityHandler{Queries: queries},
		Booking:        BookingHandler{Commands: commands, Queries: queries},
		Owner:          OwnerHandler{Queries: queries},
		Admin:          AdminHandler{Commands: commands, Queries: queries},
		AuthMiddleware: AuthMiddleware{Service: resolver}.Handle,
	})
}

func serve(r http.Handler, method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestExtractBearerToken(t *testing.T) {
	tests := map[string]string{
		"":               "",
		"Bearer abc":     "abc",
		"bearer  abc ":   "abc",
		"Basic dXNlcjpw": "",
		"Token abc":      "",
	}
	for header, want := range tests {
		assert.Equal(t, want, extractBearerToken(header), header)
	}
}

func TestCreateBookingForwardsActorAndIdempotencyKey(t *testing.T) {
	commands := &recordingBus{reply: func(msg bus.Message) (any, error) {
		cmd := msg.(bookingapp.RequestBookingCommand)
		return &dto.Booking{ID: "b-1", PropertyID: cmd.PropertyID, Status: dto.PresentStatus(domainbooking.StatusPending)}, nil
	}}
	r := newTestRouter(t, commands, &recordingBus{})

	rec := serve(r, http.MethodPost, "/api/v1/bookings", "renter-token",
		`{"property_id":" prop-1 ","start_date":"2025-06-01","end_date":"2025-07-01","message":"hi"}`,
		"Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	require.Len(t, commands.seen, 1)
	cmd := commands.seen[0].(bookingapp.RequestBookingCommand)
	assert.Equal(t, domainuser.ID("renter-1"), cmd.Actor.UserID)
	assert.Equal(t, domainuser.RoleRenter, cmd.Actor.Role)
	assert.Equal(t, "prop-1", cmd.PropertyID)
	assert.Equal(t, "k-1", cmd.IdempotencyKeyV)

	var out dto.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "PENDING", out.Status.Code)
}

func TestCreateBookingRejectsBadInput(t *testing.T) {
	commands := &recordingBus{reply: func(bus.Message) (any, error) { return nil, nil }}
	r := newTestRouter(t, commands, &recordingBus{})

	rec := serve(r, http.MethodPost, "/api/v1/bookings", "", `{"property_id":"p","start_date":"2025-06-01","end_date":"2025-07-01"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodPost, "/api/v1/bookings", "unknown-token", `{"property_id":"p","start_date":"2025-06-01","end_date":"2025-07-01"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(r, http.MethodPost, "/api/v1/bookings", "renter-token", `{"property_id":"p"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, commands.seen)
}

func TestTransitionAndCancelRoutes(t *testing.T) {
	commands := &recordingBus{reply: func(msg bus.Message) (any, error) {
		cmd := msg.(bookingapp.TransitionBookingCommand)
		status, err := domainbooking.ParseStatus(cmd.TargetStatus)
		if err != nil {
			return nil, err
		}
		return &dto.BookingActionResult{BookingID: cmd.BookingID, Status: dto.PresentStatus(status)}, nil
	}}
	r := newTestRouter(t, commands, &recordingBus{})

	rec := serve(r, http.MethodPatch, "/api/v1/bookings/b-1/status", "owner-token", `{"status":"approved"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = serve(r, http.MethodPost, "/api/v1/bookings/b-1/cancel", "renter-token", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = serve(r, http.MethodPatch, "/api/v1/bookings/b-1/status", "owner-token", `{"status":"ARCHIVED"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Len(t, commands.seen, 3)
	assert.Equal(t, "APPROVED", commands.seen[0].(bookingapp.TransitionBookingCommand).TargetStatus)
	assert.Equal(t, "CANCELLED", commands.seen[1].(bookingapp.TransitionBookingCommand).TargetStatus)
	assert.Equal(t, domainuser.ID("renter-1"), commands.seen[1].(bookingapp.TransitionBookingCommand).Actor.UserID)
}

func TestSearchPropertiesParsesQuery(t *testing.T) {
	queries := &recordingBus{reply: func(bus.Message) (any, error) { return dto.PropertyCollection{}, nil }}
	r := newTestRouter(t, &recordingBus{}, queries)

	rec := serve(r, http.MethodGet, "/api/v1/properties?city=%20Pune%20&min_rent=1000&max_rent=-5&available=true&limit=0&offset=40", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, queries.seen, 1)
	assert.Equal(t, propertyapp.SearchPropertiesQuery{
		City:          "Pune",
		MinRent:       1000,
		MaxRent:       0,
		OnlyAvailable: true,
		Limit:         20,
		Offset:        40,
	}, queries.seen[0])
}

func TestOwnerPropertiesRequiresOwner(t *testing.T) {
	queries := &recordingBus{reply: func(bus.Message) (any, error) { return dto.PropertyCollection{}, nil }}
	r := newTestRouter(t, &recordingBus{}, queries)

	rec := serve(r, http.MethodGet, "/api/v1/owner/properties", "renter-token", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, queries.seen)

	rec = serve(r, http.MethodGet, "/api/v1/owner/properties", "owner-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, queries.seen, 1)
	assert.Equal(t, "owner-1", queries.seen[0].(propertyapp.SearchPropertiesQuery).OwnerID)
}

func TestBookingCheckAlwaysAnswers(t *testing.T) {
	queries := &recordingBus{reply: func(bus.Message) (any, error) {
		return dto.BookingCheck{Accepted: false, Reason: "minimum_stay"}, nil
	}}
	r := newTestRouter(t, &recordingBus{}, queries)

	rec := serve(r, http.MethodGet, "/api/v1/properties/p-1/booking-check?start_date=2025-06-01&end_date=2025-06-10", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var out dto.BookingCheck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "minimum_stay", out.Reason)
	assert.Equal(t, availabilityapp.CheckBookingQuery{PropertyID: "p-1", StartDate: "2025-06-01", EndDate: "2025-06-10"}, queries.seen[0])
}

func TestAuthRoutesWithoutService(t *testing.T) {
	r := newTestRouter(t, &recordingBus{}, &recordingBus{})
	rec := serve(r, http.MethodPost, "/api/v1/auth/login", "", `{"email":"a@b.c","password":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = serve(r, http.MethodGet, "/api/v1/auth/me", "owner-token", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profile dto.UserProfile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
	assert.Equal(t, "OWNER", profile.Role)
}
