package secret

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"lunch-scheduler/project/domain"
)

func TestVersionResource(t *testing.T) {
	tests := []struct {
		name       string
		secretName string
		want       string
	}{
		{
			name:       "short name",
			secretName: "slack-bot-token",
			want:       "projects/lunch/secrets/slack-bot-token/versions/latest",
		},
		{
			name:       "full secret name",
			secretName: "projects/other/secrets/google-client-id",
			want:       "projects/other/secrets/google-client-id/versions/latest",
		},
		{
			name:       "pinned version",
			secretName: "projects/other/secrets/google-client-id/versions/3",
			want:       "projects/other/secrets/google-client-id/versions/3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, versionResource("lunch", tt.secretName))
		})
	}
}

func TestGetSecret(t *testing.T) {
	stored := map[string][]byte{
		"projects/lunch/secrets/slack-bot-token/versions/latest": []byte("xoxb-1\n"),
		"projects/lunch/secrets/blank/versions/latest":           []byte("  "),
	}
	var requested []string
	r := &Resolver{
		project: "lunch",
		read: func(ctx context.Context, resource string) ([]byte, error) {
			requested = append(requested, resource)
			if resource == "projects/lunch/secrets/locked/versions/latest" {
				return nil, status.Error(codes.PermissionDenied, "secretmanager.versions.access denied")
			}
			data, ok := stored[resource]
			if !ok {
				return nil, status.Error(codes.NotFound, "secret not found")
			}
			return data, nil
		},
	}
	ctx := context.Background()

	t.Run("trimmed value", func(t *testing.T) {
		got, err := r.GetSecret(ctx, "slack-bot-token")
		require.NoError(t, err)
		require.Equal(t, "xoxb-1", got)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := r.GetSecret(ctx, "google-refresh-token")
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("blank value", func(t *testing.T) {
		_, err := r.GetSecret(ctx, "blank")
		require.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("permission denied", func(t *testing.T) {
		_, err := r.GetSecret(ctx, "locked")
		require.Error(t, err)
		require.False(t, errors.Is(err, domain.ErrNotFound))
		require.Equal(t, codes.PermissionDenied, status.Code(errors.Unwrap(err)))
	})

	require.Contains(t, requested, "projects/lunch/secrets/google-refresh-token/versions/latest")
	require.NoError(t, r.Close())
}
