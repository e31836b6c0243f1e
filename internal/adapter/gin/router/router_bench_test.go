package router

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"user-management-service/internal/adapter/db/postgres"
	"user-management-service/internal/adapter/gin/handler"
	usecase "user-management-service/internal/usecase/user"
	"user-management-service/pkg/security"
)

func setupBenchmarkRouter(b *testing.B) *gin.Engine {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		b.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		b.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	b.Cleanup(func() { _ = sqlDB.Close() })
	if err := postgres.Migrate(db); err != nil {
		b.Fatal(err)
	}

	log := zap.NewNop()
	uc := usecase.New(postgres.NewUserRepoPG(db, log), security.NewPasswordHasher(4), log)
	return SetupRouter(handler.NewUserHandler(uc, log), prometheus.NewRegistry(), "bench", log)
}

func BenchmarkCreateUser(b *testing.B) {
	r := setupBenchmarkRouter(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		body := fmt.Sprintf(`{"name":"Bench User","email":"bench%d@example.com","password":"secret","phone":"123"}`, i)
		req := httptest.NewRequest(http.MethodPost, UserBasePath, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
		}
	}
}

func BenchmarkListUsers(b *testing.B) {
	r := setupBenchmarkRouter(b)

	for i := 0; i < 100; i++ {
		body := fmt.Sprintf(`{"name":"Bench User","email":"seed%d@example.com","password":"secret","phone":"123"}`, i)
		req := httptest.NewRequest(http.MethodPost, UserBasePath, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, UserBasePath, nil))
			if w.Code != http.StatusOK {
				b.Errorf("unexpected status %d", w.Code)
				return
			}
		}
	})
}
