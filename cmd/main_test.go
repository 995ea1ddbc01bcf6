package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/eaglebank/accounts-api/internal/config"
	"github.com/eaglebank/accounts-api/internal/handler"
	"github.com/gin-gonic/gin"
)

func TestRunClosesDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	deadRedis := miniredis.RunT(t)
	deadAddr := deadRedis.Addr()
	deadRedis.Close()

	tests := []struct {
		name      string
		cfg       *config.Config
		setup     func(mock sqlmock.Sqlmock)
		timeout   time.Duration
		expectErr bool
	}{
		{
			name: "redis unreachable",
			cfg:  &config.Config{RedisEnabled: true, RedisAddr: deadAddr},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectClose()
			},
			timeout:   5 * time.Second,
			expectErr: true,
		},
		{
			name: "schema bootstrap fails",
			cfg:  &config.Config{DBMigrate: true},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`CREATE TABLE IF NOT EXISTS accounts`).WillReturnError(errors.New("permission denied"))
				mock.ExpectClose()
			},
			timeout:   200 * time.Millisecond,
			expectErr: true,
		},
		{
			name: "clean shutdown",
			cfg:  &config.Config{Port: "0"},
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectClose()
			},
			timeout: 100 * time.Millisecond,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create sqlmock: %v", err)
			}
			tt.setup(mock)

			ctx, cancel := context.WithTimeout(context.Background(), tt.timeout)
			defer cancel()

			err = run(ctx, tt.cfg, db)
			if tt.expectErr && err == nil {
				t.Errorf("[%s] expected error, got nil", tt.name)
			}
			if !tt.expectErr && err != nil {
				t.Errorf("[%s] unexpected error: %v", tt.name, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("[%s] database was not closed: %v", tt.name, err)
			}
		})
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestNewRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := newRouter(pingFunc(func(context.Context) error { return nil }), handler.NewAccountHandler(nil, nil, time.Second))

	registered := map[string]bool{}
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, route := range []string{"GET /health", "GET /accounts", "POST /accounts", "DELETE /accounts"} {
		if !registered[route] {
			t.Errorf("expected route %s to be registered", route)
		}
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 from /health, got %d", w.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request id middleware to be installed")
	}
}
