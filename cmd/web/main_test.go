package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"ecommerce-dashboard/internal/config"
	"ecommerce-dashboard/internal/middleware"
	"ecommerce-dashboard/internal/models"
	"ecommerce-dashboard/internal/server"
	"ecommerce-dashboard/internal/services"
	"ecommerce-dashboard/internal/views"
)

// Test helper to create analytics with test data
func newTestAnalytics() *services.Analytics {
	a := services.NewAnalytics()
	testData := []models.Transaction{
		{
			OrderID:      "O1",
			CustomerID:   "C1",
			PurchasedAt:  time.Date(2023, 1, 15, 9, 30, 0, 0, time.UTC),
			Category:     "electronics",
			Price:        999.99,
			PaymentType:  "credit_card",
			PaymentValue: 999.99,
		},
		{
			OrderID:      "O2",
			CustomerID:   "C2",
			PurchasedAt:  time.Date(2023, 2, 10, 14, 0, 0, 0, time.UTC),
			Category:     "electronics",
			Price:        29.99,
			PaymentType:  "boleto",
			PaymentValue: 29.99,
		},
		{
			OrderID:      "O3",
			CustomerID:   "C1",
			PurchasedAt:  time.Date(2023, 3, 5, 20, 15, 0, 0, time.UTC),
			Category:     "",
			Price:        79.99,
			PaymentType:  "voucher",
			PaymentValue: 79.99,
		},
	}
	a.SetData(testData)
	return a
}

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	cfg := config.DefaultDashboard()

	presenter, err := views.NewPresenter(cfg)
	if err != nil {
		t.Fatalf("NewPresenter() failed: %v", err)
	}

	analytics := newTestAnalytics()
	templateHandlers := &server.TemplateHandlers{Dashboard: newDashboardHandler(analytics, cfg)}
	return server.NewServer(analytics, presenter, logger, templateHandlers)
}

// Integration tests for HTTP routes
func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/api/date-range", http.StatusOK, "application/json"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/daily-metrics", http.StatusOK, "application/json"},
		{"/api/categories", http.StatusOK, "application/json"},
		{"/api/payments", http.StatusOK, "application/json"},
		{"/api/rfm", http.StatusOK, "application/json"},
		{"/sse/dashboard", http.StatusOK, "text/event-stream"},
		{"/nonexistent", http.StatusNotFound, ""},
		{"/api/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			srv.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}

			if tt.contentType != "" {
				if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tt.contentType) {
					t.Errorf("expected content type %q, got %q", tt.contentType, ct)
				}
			}
		})
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	for _, tt := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/summary"},
		{http.MethodDelete, "/api/categories"},
		{http.MethodPut, "/"},
		{http.MethodPost, "/sse/dashboard"},
	} {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			srv.ServeHTTP(w, req)

			if w.Code != http.StatusMethodNotAllowed {
				t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
			}
		})
	}
}

func TestDashboardPage(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := w.Body.String()
	expected := []string{
		"<!DOCTYPE html>",
		"E-Commerce Dashboard",
		"Daily Orders",
		"Top 10 Product Categories",
		"Payment Method Distribution",
		"Daily Revenue",
		"RFM Distribution",
		`min="2023-01-15"`,
		`max="2023-03-05"`,
		"/sse/dashboard",
		`id="metrics"`,
		"datastar",
	}
	for _, s := range expected {
		if !strings.Contains(body, s) {
			t.Errorf("dashboard page should contain %q", s)
		}
	}
}

func TestAPI_RangeSelection(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		query      string
		wantOrders int
	}{
		{"", 3},
		{"?start=2023-01-15&end=2023-01-15", 1},
		{"?start=2023-02-01&end=2023-03-05", 2},
		{"?start=2023-03-06&end=2023-12-31", 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/summary"+tt.query, nil)
			w := httptest.NewRecorder()

			srv.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}

			var response struct {
				Success bool `json:"success"`
				Data    struct {
					TotalOrders int `json:"total_orders"`
				} `json:"data"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if response.Data.TotalOrders != tt.wantOrders {
				t.Errorf("total_orders = %d, want %d", response.Data.TotalOrders, tt.wantOrders)
			}
		})
	}
}

func TestSSE_UnknownCategoryLabel(t *testing.T) {
	srv := newTestServer(t)

	signals := url.QueryEscape(`{"startDate":"2023-03-01","endDate":"2023-03-31"}`)
	req := httptest.NewRequest(http.MethodGet, "/sse/dashboard?datastar="+signals, nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if !strings.Contains(w.Body.String(), views.UnknownLabel) {
		t.Error("missing category should be shown as unknown")
	}
}

func TestMiddlewareStack(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	security := config.SecurityConfig{
		EnableRateLimit: true,
		RateLimitRPS:    1,
		RateLimitBurst:  2,
		AllowedOrigins:  []string{"http://localhost:8080"},
	}

	handler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(security),
		middleware.TrustedProxy(security),
		middleware.RateLimit(middleware.NewRateLimiter(security), logger),
	)(newTestServer(t))

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		req.Header.Set("Origin", "http://localhost:8080")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)
		codes = append(codes, w.Code)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("X-Request-ID should be set")
		}
		if w.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Error("security headers should be set")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:8080" {
			t.Error("allowed origin should be echoed")
		}
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("burst requests should pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request should be limited, got %d", codes[2])
	}
}
