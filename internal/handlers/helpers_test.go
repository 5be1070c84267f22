package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dimitrije/spacebook-api/internal/booking"
	"github.com/dimitrije/spacebook-api/internal/models"
	"github.com/dimitrije/spacebook-api/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testUser struct {
	actor booking.Actor
	token string
}

func newTestUser(t *testing.T, jwtSvc *services.JWTService, admin bool) testUser {
	t.Helper()
	id := uuid.New()
	role := models.RoleUser
	if admin {
		role = models.RoleAdmin
	}
	return testUser{
		actor: booking.Actor{ID: id, Admin: admin},
		token: generateTestTokenWithRole(t, jwtSvc, id, "user-"+id.String()[:8]+"@example.com", role),
	}
}

// serve sends a request with an optional JSON body and bearer token.
func serve(app http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		if raw, ok := body.(string); ok {
			reader = bytes.NewReader([]byte(raw))
		} else {
			jsonBody, _ := json.Marshal(body)
			reader = bytes.NewReader(jsonBody)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}
