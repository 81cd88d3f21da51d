package lunch

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRecordBuilderBuild(t *testing.T) {
	rb := &RecordBuilder{
		newID: func() string { return "booking-1" },
		now: func() time.Time {
			return time.Date(2024, 7, 20, 12, 0, 0, 123_000_000, time.FixedZone("JST", 9*60*60))
		},
	}

	rec := rb.Build("U9", "2024-07-20 12:30", []string{"U1", "U2"}, "")

	require.Equal(t, "booking-1", rec.BookingID)
	require.Equal(t, "U9", rec.UserID)
	require.Equal(t, "2024-07-20 12:30", rec.LunchDateTime)
	require.Equal(t, "U1,U2", rec.Participants)
	require.Equal(t, "", rec.Channel)
	require.Equal(t, "2024-07-20T03:00:00.123Z", rec.CreatedAt)
}

func TestRecordBuilderDefaults(t *testing.T) {
	rb := NewRecordBuilder()

	a := rb.Build("U9", "", nil, "C1")
	b := rb.Build("U9", "", nil, "C1")

	_, err := uuid.Parse(a.BookingID)
	require.NoError(t, err)
	require.NotEqual(t, a.BookingID, b.BookingID)
	require.Equal(t, "", a.Participants)
	require.Equal(t, "C1", a.Channel)

	created, err := time.Parse(time.RFC3339, a.CreatedAt)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now(), created, time.Minute)
}
