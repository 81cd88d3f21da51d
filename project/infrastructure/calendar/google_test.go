package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/infrastructure/config"
	"lunch-scheduler/project/service"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return tm
}

func TestFreeSlots(t *testing.T) {
	start := mustTime(t, "2024-07-20T09:00:00Z")
	end := mustTime(t, "2024-07-20T18:00:00Z")

	tests := []struct {
		name string
		busy []domain.TimeSlot
		want []domain.TimeSlot
	}{
		{
			name: "no busy",
			busy: nil,
			want: []domain.TimeSlot{{Start: "2024-07-20T09:00:00Z", End: "2024-07-20T18:00:00Z"}},
		},
		{
			name: "two meetings",
			busy: []domain.TimeSlot{
				{Start: "2024-07-20T12:00:00Z", End: "2024-07-20T13:00:00Z"},
				{Start: "2024-07-20T10:00:00Z", End: "2024-07-20T11:00:00Z"},
			},
			want: []domain.TimeSlot{
				{Start: "2024-07-20T09:00:00Z", End: "2024-07-20T10:00:00Z"},
				{Start: "2024-07-20T11:00:00Z", End: "2024-07-20T12:00:00Z"},
				{Start: "2024-07-20T13:00:00Z", End: "2024-07-20T18:00:00Z"},
			},
		},
		{
			name: "overlapping and outside the window",
			busy: []domain.TimeSlot{
				{Start: "2024-07-20T08:00:00Z", End: "2024-07-20T09:30:00Z"},
				{Start: "2024-07-20T09:15:00Z", End: "2024-07-20T10:00:00Z"},
				{Start: "2024-07-20T17:00:00Z", End: "2024-07-20T20:00:00Z"},
			},
			want: []domain.TimeSlot{
				{Start: "2024-07-20T10:00:00Z", End: "2024-07-20T17:00:00Z"},
			},
		},
		{
			name: "fully busy",
			busy: []domain.TimeSlot{{Start: "2024-07-20T08:00:00Z", End: "2024-07-20T19:00:00Z"}},
			want: []domain.TimeSlot{},
		},
		{
			name: "malformed busy ignored",
			busy: []domain.TimeSlot{{Start: "garbage", End: "2024-07-20T10:00:00Z"}},
			want: []domain.TimeSlot{{Start: "2024-07-20T09:00:00Z", End: "2024-07-20T18:00:00Z"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, freeSlots(start, end, tt.busy))
		})
	}
}

func TestLookupMissingCredentials(t *testing.T) {
	gc := NewGoogleClient(&config.Config{})

	_, err := gc.Lookup(context.Background(), service.CalendarRequest{
		Email: "taro@example.com",
		Start: time.Now(),
		End:   time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestLookup(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/calendars/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2024-07-20T09:00:00Z", r.URL.Query().Get("timeMin"))
		require.Equal(t, "true", r.URL.Query().Get("singleEvents"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{
				{
					"id":      "ev1",
					"summary": "定例",
					"status":  "confirmed",
					"start":   map[string]string{"dateTime": "2024-07-20T10:00:00Z"},
					"end":     map[string]string{"dateTime": "2024-07-20T11:00:00Z"},
				},
			},
		})
	})
	mux.HandleFunc("/freeBusy", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"calendars": map[string]any{
				"taro@example.com": map[string]any{
					"busy": []map[string]string{
						{"start": "2024-07-20T10:00:00Z", "end": "2024-07-20T11:00:00Z"},
					},
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	gc := NewGoogleClient(&config.Config{GoogleClientID: "id", GoogleClientSecret: "secret"})
	gc.newService = func(ctx context.Context) (*gcal.Service, error) {
		return gcal.NewService(ctx,
			option.WithHTTPClient(srv.Client()),
			option.WithEndpoint(srv.URL+"/"),
		)
	}

	window, err := gc.Lookup(context.Background(), service.CalendarRequest{
		Email: "taro@example.com",
		Start: mustTime(t, "2024-07-20T09:00:00Z"),
		End:   mustTime(t, "2024-07-20T12:00:00Z"),
	})
	require.NoError(t, err)
	require.Equal(t, []domain.CalendarEvent{{
		ID:      "ev1",
		Summary: "定例",
		Start:   "2024-07-20T10:00:00Z",
		End:     "2024-07-20T11:00:00Z",
		Status:  "confirmed",
	}}, window.Events)
	require.Equal(t, []domain.TimeSlot{
		{Start: "2024-07-20T09:00:00Z", End: "2024-07-20T10:00:00Z"},
		{Start: "2024-07-20T11:00:00Z", End: "2024-07-20T12:00:00Z"},
	}, window.FreeSlots)
}

func TestLookupAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
	}))
	defer srv.Close()

	gc := NewGoogleClient(&config.Config{GoogleClientID: "id", GoogleClientSecret: "secret"})
	gc.newService = func(ctx context.Context) (*gcal.Service, error) {
		return gcal.NewService(ctx, option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	}

	_, err := gc.Lookup(context.Background(), service.CalendarRequest{
		Email: "nobody@example.com",
		Start: mustTime(t, "2024-07-20T09:00:00Z"),
		End:   mustTime(t, "2024-07-20T12:00:00Z"),
	})
	require.Error(t, err)
	require.False(t, errors.Is(err, domain.ErrConfiguration))
}
