package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/filecrate/filecrate/internal/permissions"
)

type stubResourceStore struct {
	owners map[string]string
	err    error
}

func (s *stubResourceStore) FindOwner(_ context.Context, resourceID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	owner, ok := s.owners[resourceID]
	if !ok {
		return "", permissions.ErrResourceNotFound
	}
	return owner, nil
}

type stubGrantStore struct {
	grants map[string]permissions.Level
}

func (s *stubGrantStore) FindGrant(_ context.Context, resourceID, principalID string) (permissions.Level, error) {
	level, ok := s.grants[resourceID+"/"+principalID]
	if !ok {
		return permissions.LevelNone, permissions.ErrGrantNotFound
	}
	return level, nil
}

func (s *stubGrantStore) UpsertGrant(_ context.Context, _, _ string, _ permissions.Level) error {
	return nil
}
func (s *stubGrantStore) DeleteGrant(_ context.Context, _, _ string) error     { return nil }
func (s *stubGrantStore) DeleteAllGrants(_ context.Context, _ string) error    { return nil }
func (s *stubGrantStore) ListGrants(_ context.Context, _ string) ([]permissions.Grant, error) {
	return nil, nil
}

type guardFixture struct {
	router *gin.Engine
}

// newGuardFixture wires a minimal router: every route runs a fake auth
// middleware that injects userID (unless empty), then the guard, then a
// handler echoing the resolved file id.
func newGuardFixture(t *testing.T, userID string, resources permissions.ResourceStore, grants permissions.GrantStore, required permissions.Level) *guardFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	evaluator, err := permissions.NewEvaluator(resources, grants)
	require.NoError(t, err)
	guard, err := NewGuard(evaluator)
	require.NoError(t, err)

	router := gin.New()
	identity := func(c *gin.Context) {
		if userID != "" {
			c.Set(CtxUserIDKey, userID)
		}
		c.Next()
	}
	okHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"file_id": c.GetString(CtxFileIDKey)})
	}

	router.GET("/files/:id", identity, guard.RequireLevel(required), okHandler)
	router.POST("/operate", identity, guard.RequireLevel(required), okHandler)

	return &guardFixture{router: router}
}

func (f *guardFixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var payload struct {
		Success bool `json:"success"`
		Error   *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.False(t, payload.Success)
	require.NotNil(t, payload.Error)
	return payload.Error.Code
}

func TestGuard_MissingPrincipalIsUnauthorized(t *testing.T) {
	fixture := newGuardFixture(t, "",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{}, permissions.LevelRead)

	rec := fixture.do(t, http.MethodGet, "/files/f1", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestGuard_MissingFileReferenceFailsClosed(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{}, permissions.LevelRead)

	rec := fixture.do(t, http.MethodPost, "/operate", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "MISSING_RESOURCE_REFERENCE", errorCode(t, rec))
}

func TestGuard_OwnerIsAllowed(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{}, permissions.LevelDelete)

	rec := fixture.do(t, http.MethodGet, "/files/f1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		FileID string `json:"file_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "f1", payload.FileID)
}

func TestGuard_InsufficientGrantIsForbidden(t *testing.T) {
	fixture := newGuardFixture(t, "bob",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{grants: map[string]permissions.Level{"f1/bob": permissions.LevelRead}},
		permissions.LevelWrite)

	rec := fixture.do(t, http.MethodGet, "/files/f1", "")
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestGuard_MissingResourceIsNotFound(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{owners: map[string]string{}},
		&stubGrantStore{}, permissions.LevelRead)

	rec := fixture.do(t, http.MethodGet, "/files/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "NOT_FOUND", errorCode(t, rec))
}

func TestGuard_StoreFaultIsServiceUnavailable(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{err: errors.New("connection refused")},
		&stubGrantStore{}, permissions.LevelRead)

	rec := fixture.do(t, http.MethodGet, "/files/f1", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "EVALUATION_UNAVAILABLE", errorCode(t, rec))
}

func TestGuard_ResolvesFileIDFromQuery(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{}, permissions.LevelRead)

	rec := fixture.do(t, http.MethodPost, "/operate?file_id=f1", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_ResolvesFileIDFromBody(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{}, permissions.LevelRead)

	rec := fixture.do(t, http.MethodPost, "/operate", `{"file_id":"f1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_QueryTakesPrecedenceOverBody(t *testing.T) {
	fixture := newGuardFixture(t, "alice",
		&stubResourceStore{owners: map[string]string{"f1": "alice"}},
		&stubGrantStore{}, permissions.LevelRead)

	// Body names a file alice cannot access; the query parameter wins.
	rec := fixture.do(t, http.MethodPost, "/operate?file_id=f1", `{"file_id":"ghost"}`)
	require.Equal(t, http.StatusOK, rec.Code)
}
