package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-gin-gorm-users/internal/domain"
	"go-gin-gorm-users/internal/repo/memory"
	"go-gin-gorm-users/internal/service"
	"go-gin-gorm-users/pkg/utils"
)

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

func newTestEngine(t *testing.T, svc UserService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewUserHandler(svc, zap.NewNop()).MountAPI(r.Group("/api/v1"))
	return r
}

func newMemoryEngine(t *testing.T) (*gin.Engine, *memory.UserRepo) {
	t.Helper()
	store := memory.NewUserRepo()
	svc := service.NewUserService(store, utils.NewBcryptHasher(bcrypt.MinCost, 2), zap.NewNop())
	return newTestEngine(t, svc), store
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func createUser(t *testing.T, r http.Handler, email string) userView {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/users", `{"email":"`+email+`","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var v userView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func TestCreateUser(t *testing.T) {
	r, _ := newMemoryEngine(t)

	w, env := do(t, r, http.MethodPost, "/api/v1/users", `{"email":"test@example.com","password":"password123"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, env.Code)
	assert.NotContains(t, string(env.Data), "password")

	var v userView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, "test@example.com", v.Email)
	assert.Equal(t, "USER", v.Role)
	assert.False(t, v.CreatedAt.IsZero())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	r, _ := newMemoryEngine(t)
	createUser(t, r, "test@example.com")

	w, env := do(t, r, http.MethodPost, "/api/v1/users", `{"email":"test@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 409, env.Code)
	assert.Equal(t, "email already exists", env.Msg)

	_, list := do(t, r, http.MethodGet, "/api/v1/users", "")
	var vs []userView
	require.NoError(t, json.Unmarshal(list.Data, &vs))
	assert.Len(t, vs, 1)
}

func TestCreateUser_InvalidInput(t *testing.T) {
	r, _ := newMemoryEngine(t)

	tests := []struct {
		name string
		body string
	}{
		{"invalid email", `{"email":"invalid-email","password":"password123"}`},
		{"missing email", `{"password":"password123"}`},
		{"short password", `{"email":"a@example.com","password":"short"}`},
		{"missing password", `{"email":"a@example.com"}`},
		{"malformed json", `{"email":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestListUsers(t *testing.T) {
	r, _ := newMemoryEngine(t)

	w, env := do(t, r, http.MethodGet, "/api/v1/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, string(env.Data))

	createUser(t, r, "a@example.com")
	createUser(t, r, "b@example.com")

	_, env = do(t, r, http.MethodGet, "/api/v1/users", "")
	var vs []userView
	require.NoError(t, json.Unmarshal(env.Data, &vs))
	require.Len(t, vs, 2)
	assert.Equal(t, "a@example.com", vs[0].Email)
	assert.Equal(t, "b@example.com", vs[1].Email)
	assert.NotContains(t, string(env.Data), "password")
}

func TestGetUser(t *testing.T) {
	r, _ := newMemoryEngine(t)
	created := createUser(t, r, "get@example.com")

	w, env := do(t, r, http.MethodGet, "/api/v1/users/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var v userView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, created.ID, v.ID)
	assert.Equal(t, "get@example.com", v.Email)

	t.Run("unknown id", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/api/v1/users/999", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "user not found", env.Msg)
	})

	t.Run("malformed id", func(t *testing.T) {
		w, env := do(t, r, http.MethodGet, "/api/v1/users/invalid_id", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid user id", env.Msg)
	})
}

func TestUpdateUser(t *testing.T) {
	r, _ := newMemoryEngine(t)
	a := createUser(t, r, "a@example.com")
	createUser(t, r, "taken@example.com")

	t.Run("email", func(t *testing.T) {
		w, env := do(t, r, http.MethodPatch, "/api/v1/users/"+a.ID, `{"email":"a2@example.com"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var v userView
		require.NoError(t, json.Unmarshal(env.Data, &v))
		assert.Equal(t, "a2@example.com", v.Email)
		assert.Equal(t, a.ID, v.ID)
	})

	t.Run("password", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPatch, "/api/v1/users/"+a.ID, `{"password":"newpassword1"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("empty body keeps record", func(t *testing.T) {
		w, env := do(t, r, http.MethodPatch, "/api/v1/users/"+a.ID, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var v userView
		require.NoError(t, json.Unmarshal(env.Data, &v))
		assert.Equal(t, "a2@example.com", v.Email)
	})

	t.Run("email taken", func(t *testing.T) {
		w, env := do(t, r, http.MethodPatch, "/api/v1/users/"+a.ID, `{"email":"taken@example.com"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "email already exists", env.Msg)
	})

	t.Run("invalid email", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPatch, "/api/v1/users/"+a.ID, `{"email":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPatch, "/api/v1/users/"+a.ID, `{"password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w, _ := do(t, r, http.MethodPatch, "/api/v1/users/nonexistent-id", `{"email":"x@example.com"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteUser(t *testing.T) {
	r, store := newMemoryEngine(t)
	u := createUser(t, r, "del@example.com")

	w, env := do(t, r, http.MethodDelete, "/api/v1/users/"+u.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var v userView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	assert.Equal(t, "del@example.com", v.Email)

	w, _ = do(t, r, http.MethodGet, "/api/v1/users/"+u.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/users/"+u.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	t.Run("referenced", func(t *testing.T) {
		ref := createUser(t, r, "ref@example.com")
		store.Reference(ref.ID)

		w, _ := do(t, r, http.MethodDelete, "/api/v1/users/"+ref.ID, "")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w, _ = do(t, r, http.MethodGet, "/api/v1/users/"+ref.ID, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

type failingService struct{ err error }

func (f failingService) Create(context.Context, service.CreateUserInput) (*domain.User, error) {
	return nil, f.err
}
func (f failingService) FindAll(context.Context) ([]domain.User, error) { return nil, f.err }
func (f failingService) FindOne(context.Context, string) (*domain.User, error) {
	return nil, f.err
}
func (f failingService) Update(context.Context, string, service.UpdateUserInput) (*domain.User, error) {
	return nil, f.err
}
func (f failingService) Remove(context.Context, string) (*domain.User, error) { return nil, f.err }

func TestInternalErrorIsOpaque(t *testing.T) {
	r := newTestEngine(t, failingService{err: errors.New("dial tcp 10.0.0.1:5432: connection refused")})

	w, env := do(t, r, http.MethodGet, "/api/v1/users", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 500, env.Code)
	assert.NotContains(t, env.Msg, "10.0.0.1")
}
