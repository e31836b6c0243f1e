package router

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"user-management-service/internal/adapter/db/postgres"
	"user-management-service/internal/adapter/gin/handler"
	usecase "user-management-service/internal/usecase/user"
	"user-management-service/pkg/security"
)

type RouterSuite struct {
	suite.Suite
	db     *gorm.DB
	hasher *security.PasswordHasher
	router *gin.Engine
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	t := s.T()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	s.Require().NoError(postgres.Migrate(db))

	log := zaptest.NewLogger(t)
	s.db = db
	s.hasher = security.NewPasswordHasher(4)
	uc := usecase.New(postgres.NewUserRepoPG(db, log), s.hasher, log)
	s.router = SetupRouter(handler.NewUserHandler(uc, log), prometheus.NewRegistry(), "user-management-service", log)
}

func (s *RouterSuite) do(method, path string, body any) (int, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (s *RouterSuite) count() int64 {
	var n int64
	s.Require().NoError(s.db.Model(&postgres.UserSchema{}).Count(&n).Error)
	return n
}

func (s *RouterSuite) stored(email string) postgres.UserSchema {
	var row postgres.UserSchema
	s.Require().NoError(s.db.Where("email = ?", email).First(&row).Error)
	return row
}

func (s *RouterSuite) create(name, email, password, phone string) string {
	code, resp := s.do(http.MethodPost, UserBasePath, map[string]string{
		"name": name, "email": email, "password": password, "phone": phone,
	})
	s.Require().Equal(http.StatusOK, code)
	s.Require().Equal(true, resp["status"], resp)
	return s.stored(email).ID
}

func (s *RouterSuite) TestWelcomeAndHealth() {
	code, resp := s.do(http.MethodGet, "/", nil)
	s.Equal(http.StatusOK, code)
	s.Equal("Welcome", resp["message"])

	code, resp = s.do(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, code)
	s.Equal("healthy", resp["status"])
	s.Equal("user-management-service", resp["service"])
}

func (s *RouterSuite) TestCreate_DuplicateEmail() {
	body := map[string]string{"name": "Ana", "email": "a@b.com", "password": "x", "phone": "1"}

	code, resp := s.do(http.MethodPost, UserBasePath, body)
	s.Equal(http.StatusOK, code)
	s.Equal(map[string]any{"status": true, "message": "successfully created user"}, resp)

	code, resp = s.do(http.MethodPost, UserBasePath, body)
	s.Equal(http.StatusOK, code)
	s.Equal(map[string]any{"status": false, "message": "this email is already registered, please try another one"}, resp)

	s.Equal(int64(1), s.count())
}

func (s *RouterSuite) TestCreate_HashesPassword() {
	s.create("Ana", "a@b.com", "plain-secret", "1")

	row := s.stored("a@b.com")
	s.NotEqual("plain-secret", row.Password)
	ok, err := s.hasher.Verify("plain-secret", row.Password)
	s.Require().NoError(err)
	s.True(ok)
	s.True(row.Status)
}

func (s *RouterSuite) TestCreate_ShortNameRejected() {
	code, resp := s.do(http.MethodPost, UserBasePath, map[string]string{
		"name": "Al", "email": "a@b.com", "password": "x", "phone": "1",
	})

	s.Equal(http.StatusBadRequest, code)
	s.Equal("bad request", resp["status"])
	s.Contains(resp["message"], "at least 3 characters")
	s.Equal(int64(0), s.count())
}

func (s *RouterSuite) TestReadsNeverExposePassword() {
	id := s.create("Ana", "a@b.com", "x", "1")
	s.create(gofakeit.Name(), gofakeit.Email(), gofakeit.Password(true, true, true, false, false, 12), gofakeit.Phone())

	code, resp := s.do(http.MethodGet, UserBasePath, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("success", resp["message"])
	list := resp["data"].([]any)
	s.Len(list, 2)
	for _, item := range list {
		s.NotContains(item.(map[string]any), "password")
	}

	code, resp = s.do(http.MethodGet, UserBasePath+"/"+id, nil)
	s.Equal(http.StatusOK, code)
	user := resp["data"].(map[string]any)
	s.Equal("Ana", user["name"])
	s.NotContains(user, "password")

	code, resp = s.do(http.MethodGet, UserBasePath+"?email=a@b.com", nil)
	s.Equal(http.StatusOK, code)
	s.Len(resp["data"], 1)
}

func (s *RouterSuite) TestGet_NotFound() {
	code, resp := s.do(http.MethodGet, UserBasePath+"/0b6c9a43-5d0f-4a5c-9f5e-3f1f1d3c2a10", nil)

	s.Equal(http.StatusNotFound, code)
	s.Equal(map[string]any{"status": false, "message": "User not found"}, resp)
}

func (s *RouterSuite) TestUpdate_ChangesOnlyProfileFields() {
	id := s.create("Ana", "a@b.com", "x", "1")
	before := s.stored("a@b.com")

	code, resp := s.do(http.MethodPatch, UserBasePath+"/"+id, map[string]string{
		"name": "Anna", "email": "anna@b.com", "phone": "2", "password": "ignored",
	})
	s.Equal(http.StatusOK, code)
	s.Equal("successfully updated user", resp["message"])

	after := s.stored("anna@b.com")
	s.Equal(before.ID, after.ID)
	s.Equal(before.Password, after.Password)
	s.Equal(before.Status, after.Status)
	s.Equal("Anna", after.Name)
	s.Equal("2", after.Phone)
}

func (s *RouterSuite) TestUpdate_DuplicateEmailConflict() {
	s.create("Ana", "a@b.com", "x", "1")
	id := s.create("Bob", "bob@b.com", "x", "2")

	code, resp := s.do(http.MethodPatch, UserBasePath+"/"+id, map[string]string{
		"name": "Bob", "email": "a@b.com", "phone": "2",
	})

	s.Equal(http.StatusConflict, code)
	s.Equal("this email is already registered, please try another one", resp["message"])
}

func (s *RouterSuite) TestDelete_ThenNotFound() {
	id := s.create("Ana", "a@b.com", "x", "1")

	code, resp := s.do(http.MethodDelete, UserBasePath+"/"+id, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("successfully deleted user", resp["message"])

	code, _ = s.do(http.MethodGet, UserBasePath+"/"+id, nil)
	s.Equal(http.StatusNotFound, code)

	code, _ = s.do(http.MethodDelete, UserBasePath+"/"+id, nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *RouterSuite) TestToggleTwiceRestoresStatus() {
	id := s.create("Ana", "a@b.com", "x", "1")

	code, resp := s.do(http.MethodPost, UserBasePath+"/state/"+id, nil)
	s.Equal(http.StatusOK, code)
	s.Equal("successfully updated status", resp["message"])
	s.False(s.stored("a@b.com").Status)

	code, _ = s.do(http.MethodPost, UserBasePath+"/state/"+id, nil)
	s.Equal(http.StatusOK, code)
	s.True(s.stored("a@b.com").Status)

	code, _ = s.do(http.MethodPost, UserBasePath+"/state/0b6c9a43-5d0f-4a5c-9f5e-3f1f1d3c2a10", nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *RouterSuite) TestChangePassword() {
	id := s.create("Ana", "a@b.com", "old", "1")

	code, resp := s.do(http.MethodPost, UserBasePath+"/change-password/"+id, map[string]string{"password": "new"})
	s.Equal(http.StatusOK, code)
	s.Equal("successfully updated password", resp["message"])

	hash := s.stored("a@b.com").Password
	ok, err := s.hasher.Verify("new", hash)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.hasher.Verify("old", hash)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/", nil)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	s.Equal(http.StatusOK, w.Code)

	body, err := io.ReadAll(w.Body)
	s.Require().NoError(err)
	s.Contains(string(body), `http_requests_total{method="GET",route="/",status="200"} 1`)
}

func (s *RouterSuite) TestCreate_LongPasswords() {
	tests := []struct {
		email    string
		password string
	}{
		{"ascii@b.com", strings.Repeat("a", 100)},
		{"multibyte@b.com", strings.Repeat("é", 40)},
	}

	for _, tt := range tests {
		code, resp := s.do(http.MethodPost, UserBasePath, map[string]string{
			"name": "Ana", "email": tt.email, "password": tt.password, "phone": "1",
		})
		s.Equal(http.StatusOK, code, resp)
		s.Equal(true, resp["status"], resp)

		ok, err := s.hasher.Verify(tt.password, s.stored(tt.email).Password)
		s.Require().NoError(err)
		s.True(ok, tt.email)
	}

	id := s.stored("ascii@b.com").ID
	longer := strings.Repeat("z", 150)
	code, resp := s.do(http.MethodPost, UserBasePath+"/change-password/"+id, map[string]string{"password": longer})
	s.Equal(http.StatusOK, code, resp)
	ok, err := s.hasher.Verify(longer, s.stored("ascii@b.com").Password)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RouterSuite) TestTrailingSlash_ServedDirectly() {
	code, resp := s.do(http.MethodPost, UserBasePath+"/", map[string]string{
		"name": "Ana", "email": "a@b.com", "password": "x", "phone": "1",
	})
	s.Equal(http.StatusOK, code)
	s.Equal("successfully created user", resp["message"])

	code, resp = s.do(http.MethodGet, UserBasePath+"/", nil)
	s.Equal(http.StatusOK, code)
	s.Len(resp["data"], 1)
}

func TestUserRoutes_Table(t *testing.T) {
	gin.SetMode(gin.TestMode)
	routes := userRoutes(handler.NewUserHandler(nil, zaptest.NewLogger(t)))

	got := make([]string, len(routes))
	for i, r := range routes {
		got[i] = r.method + " " + UserBasePath + r.path
		assert.Len(t, r.handlers, 2, got[i])
	}

	require.ElementsMatch(t, []string{
		"GET /api/v1/user",
		"GET /api/v1/user/",
		"GET /api/v1/user/:id",
		"POST /api/v1/user",
		"POST /api/v1/user/",
		"PATCH /api/v1/user/:id",
		"DELETE /api/v1/user/:id",
		"POST /api/v1/user/change-password/:id",
		"POST /api/v1/user/state/:id",
	}, got)
}
