package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/mixflow/internal/shared"
)

func sample() []SampleEntry {
	return []SampleEntry{
		{Position: 0, ID: "a", Title: "First", Artist: "X", Genre: "Pop", Popularity: 90},
		{Position: 1, ID: "b", Title: "Second", Artist: "Y", Genre: "Rock", Popularity: 40},
	}
}

func TestRankService(t *testing.T) {
	t.Run("decodes acceptance", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/rank" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			var req rankRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("bad request body: %v", err)
			}
			if req.Model != "rank-large" {
				t.Errorf("expected model rank-large, got %s", req.Model)
			}
			json.NewEncoder(w).Encode(RankResponse{Acceptable: true})
		}))
		defer srv.Close()

		svc := NewRankService(srv.URL, "", nil)
		resp, err := svc.Rank(context.Background(), "rank-large", time.Second, sample())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !resp.Acceptable {
			t.Error("expected acceptable order")
		}
	})

	t.Run("decodes swaps", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(RankResponse{
				Swaps: []Swap{{From: 0, To: 1}},
			})
		}))
		defer srv.Close()

		svc := NewRankService(srv.URL, "", nil)
		resp, err := svc.Rank(context.Background(), "rank-large", time.Second, sample())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(resp.Swaps) != 1 || resp.Swaps[0].To != 1 {
			t.Errorf("expected one swap 0->1, got %+v", resp.Swaps)
		}
	})

	t.Run("sends bearer token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer secret" {
				t.Errorf("expected bearer token, got %q", got)
			}
			json.NewEncoder(w).Encode(RankResponse{Acceptable: true})
		}))
		defer srv.Close()

		svc := NewRankService(srv.URL, "secret", nil)
		if _, err := svc.Rank(context.Background(), "m", time.Second, sample()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("maps 429 to rate limit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		svc := NewRankService(srv.URL, "", nil)
		_, err := svc.Rank(context.Background(), "m", time.Second, sample())
		if !errors.Is(err, shared.ErrRateLimited) {
			t.Errorf("expected ErrRateLimited, got %v", err)
		}
	})

	t.Run("maps quota statuses", func(t *testing.T) {
		for _, status := range []int{http.StatusPaymentRequired, http.StatusForbidden} {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			}))

			svc := NewRankService(srv.URL, "", nil)
			_, err := svc.Rank(context.Background(), "m", time.Second, sample())
			if !errors.Is(err, shared.ErrQuotaExhausted) {
				t.Errorf("status %d: expected ErrQuotaExhausted, got %v", status, err)
			}
			srv.Close()
		}
	})

	t.Run("maps timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
			json.NewEncoder(w).Encode(RankResponse{Acceptable: true})
		}))
		defer srv.Close()

		svc := NewRankService(srv.URL, "", nil)
		_, err := svc.Rank(context.Background(), "m", 20*time.Millisecond, sample())
		if !errors.Is(err, shared.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got %v", err)
		}
	})

	t.Run("wraps other failures", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		svc := NewRankService(srv.URL, "", nil)
		_, err := svc.Rank(context.Background(), "m", time.Second, sample())
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}

func TestCatalogService(t *testing.T) {
	t.Run("resolves a track", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/v1/catalog/resolve" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			q := r.URL.Query()
			if q.Get("platform") != "spotify" || q.Get("title") != "Song" || q.Get("artist") != "Artist" {
				t.Errorf("unexpected query %v", q)
			}
			json.NewEncoder(w).Encode(resolveResponse{ID: "sp:123"})
		}))
		defer srv.Close()

		svc := NewCatalogService(srv.URL, "spotify", nil)
		id, err := svc.ResolveTrack(context.Background(), "Song", "Artist")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id != "sp:123" {
			t.Errorf("expected sp:123, got %s", id)
		}
	})

	t.Run("maps 404 to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		svc := NewCatalogService(srv.URL, "spotify", nil)
		_, err := svc.ResolveTrack(context.Background(), "Song", "Artist")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("empty identifier is a miss", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(resolveResponse{})
		}))
		defer srv.Close()

		svc := NewCatalogService(srv.URL, "spotify", nil)
		_, err := svc.ResolveTrack(context.Background(), "Song", "Artist")
		if !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}
