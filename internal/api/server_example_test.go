package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/JakeFAU/bible-atlas-api/internal/auth"
	"github.com/JakeFAU/bible-atlas-api/internal/clock"
	"github.com/JakeFAU/bible-atlas-api/internal/progress/sinks"
)

func ExampleServer_Handler() {
	tokens := auth.NewTokens(auth.TokenConfig{AccessSecret: "a", RefreshSecret: "r"})
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	srv := NewServer(Services{}, tokens, sinks.NewBroker(1), clock.NewFixed(now), Options{}, nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	fmt.Println(rec.Code)
	fmt.Print(rec.Body.String())
	// Output:
	// 200
	// {"status":"ok","timestamp":"2024-06-01T12:00:00Z"}
}
