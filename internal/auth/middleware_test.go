package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"pulse/infrastructure"
)

func TestRequireAuth(t *testing.T) {
	svc, _, _ := newTestService()
	created, tokens, err := svc.Register(context.Background(), "alice", "alice@example.com", strongPassword)
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	var seenUserID uuid.UUID
	handler := NewMiddleware(svc).RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		id, ok := infrastructure.UserIDFromContext(r.Context())
		if !ok {
			t.Error("user id missing from request context")
		}
		seenUserID = id
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"bearer token", "Bearer " + tokens.AccessToken, http.StatusOK},
		{"raw token", tokens.AccessToken, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"garbage token", "Bearer garbage", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/users", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("status %d, want %d", rec.Code, tc.want)
			}
			if tc.want == http.StatusOK && seenUserID != created.ID {
				t.Fatalf("context carries %s, want %s", seenUserID, created.ID)
			}
		})
	}
}
