package lunch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lunch-scheduler/project/domain"
)

func TestParseMessage(t *testing.T) {
	const self = "UBOT"

	tests := []struct {
		name string
		text string
		want domain.ExtractionResult
	}{
		{
			name: "mentions only",
			text: "<@U1> <@U2> let's eat",
			want: domain.ExtractionResult{
				MentionedUsers:      []string{"U1", "U2"},
				HasMentions:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "only the bot itself",
			text: "<@UBOT> hello",
			want: domain.ExtractionResult{},
		},
		{
			name: "bot and app ids are excluded",
			text: "<@UBOT> <@A0123> lunch?",
			want: domain.ExtractionResult{},
		},
		{
			name: "full date without mentions",
			text: "lunch 2024-07-20 12:30 anyone",
			want: domain.ExtractionResult{
				DateTimeToken:       "2024-07-20 12:30",
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "slash date",
			text: "<@UBOT> 7/20 12:30",
			want: domain.ExtractionResult{
				DateTimeToken:       "7/20 12:30",
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "full-width space between date and time",
			text: "<@U1> 2024-07-20\u300012:30",
			want: domain.ExtractionResult{
				MentionedUsers:      []string{"U1"},
				DateTimeToken:       "2024-07-20\u300012:30",
				HasMentions:         true,
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "no-break space between date and time",
			text: "7/20\u00a012:30",
			want: domain.ExtractionResult{
				DateTimeToken:       "7/20\u00a012:30",
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "dash date",
			text: "<@UBOT> 07-20 12:30",
			want: domain.ExtractionResult{
				DateTimeToken:       "07-20 12:30",
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "full date wins over earlier slash date",
			text: "7/21 13:00 or 2024-07-20 12:30",
			want: domain.ExtractionResult{
				DateTimeToken:       "2024-07-20 12:30",
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "date token is returned verbatim",
			text: "2024-07-20   12:30",
			want: domain.ExtractionResult{
				DateTimeToken:       "2024-07-20   12:30",
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "duplicates are kept in order",
			text: "<@UBOT> <@U2> <@U1> <@U2>",
			want: domain.ExtractionResult{
				MentionedUsers:      []string{"U2", "U1", "U2"},
				HasMentions:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "mentions and date",
			text: "<@U1> <@U2> 2024-07-20 12:30",
			want: domain.ExtractionResult{
				MentionedUsers:      []string{"U1", "U2"},
				DateTimeToken:       "2024-07-20 12:30",
				HasMentions:         true,
				HasDateTime:         true,
				ShouldStartWorkflow: true,
			},
		},
		{
			name: "at sign without mention token",
			text: "mail me at a@example.com",
			want: domain.ExtractionResult{},
		},
		{
			name: "plain text",
			text: "hello",
			want: domain.ExtractionResult{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseMessage(tt.text, self)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseMessageWithoutSelfID(t *testing.T) {
	got := ParseMessage("<@UBOT> <@U1>", "")
	require.Equal(t, []string{"UBOT", "U1"}, got.MentionedUsers)
	require.True(t, got.HasMentions)
}

func TestClassify(t *testing.T) {
	require.Equal(t, domain.IntentInvalid, Classify(false, false))
	require.Equal(t, domain.IntentDateTimeOnly, Classify(false, true))
	require.Equal(t, domain.IntentMentionsOnly, Classify(true, false))
	require.Equal(t, domain.IntentBoth, Classify(true, true))
}

func TestParseAndClassifyWithoutMentionOrDate(t *testing.T) {
	for _, text := range []string{"", "lunch please", "tomorrow noon", "12:30"} {
		res := ParseMessage(text, "UBOT")
		intent := Classify(res.HasMentions, res.HasDateTime)
		require.Equal(t, domain.IntentInvalid, intent, text)
		require.False(t, res.ShouldStartWorkflow, text)
		require.Equal(t, UsageMessage, NewFormatter(nil).Format(intent, "U9", res.DateTimeToken, res.MentionedUsers, nil))
	}
}
