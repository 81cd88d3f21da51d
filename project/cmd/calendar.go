package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lunch-scheduler/project/infrastructure/calendar"
	"lunch-scheduler/project/infrastructure/config"
	"lunch-scheduler/project/service"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Fetch events and free slots from Google Calendar",
	Long: `指定したメールアドレスのカレンダーから予定と空き時間を取得して JSON で表示します。
認証情報は GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET, GOOGLE_REFRESH_TOKEN 環境変数から読み込みます。

Examples:
  lunch-scheduler calendar --email taro@example.com
  lunch-scheduler calendar --email taro@example.com --start 2024-07-20T09:00:00+09:00 --end 2024-07-20T18:00:00+09:00`,
	Args: cobra.NoArgs,
	RunE: runCalendar,
}

var (
	calendarEmail string
	calendarStart string
	calendarEnd   string
)

func init() {
	calendarCmd.Flags().StringVar(&calendarEmail, "email", "", "カレンダーを取得するユーザーのメールアドレス (required)")
	calendarCmd.Flags().StringVar(&calendarStart, "start", "", "取得開始時刻 (RFC 3339, 省略時は現在時刻)")
	calendarCmd.Flags().StringVar(&calendarEnd, "end", "", "取得終了時刻 (RFC 3339, 省略時は開始から24時間後)")

	calendarCmd.MarkFlagRequired("email")
}

// calendarOutput は calendar コマンドの出力です
type calendarOutput struct {
	EventsJSON        string `json:"events_json"`
	FreeTimeSlotsJSON string `json:"free_time_slots_json"`
	Success           bool   `json:"success"`
	ErrorMessage      string `json:"error_message,omitempty"`
}

func runCalendar(cmd *cobra.Command, args []string) error {
	start, end, err := calendarRange(calendarStart, calendarEnd, time.Now())
	if err != nil {
		return err
	}

	v := config.NewViper()
	client := calendar.NewGoogleClient(&config.Config{
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRefreshToken: v.GetString("GOOGLE_REFRESH_TOKEN"),
	})

	result := service.FetchCalendar(cmd.Context(), client, service.CalendarRequest{
		Email: calendarEmail,
		Start: start,
		End:   end,
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(calendarOutput{
		EventsJSON:        result.EventsJSON(),
		FreeTimeSlotsJSON: result.FreeSlotsJSON(),
		Success:           result.Success,
		ErrorMessage:      result.ErrorMessage,
	})
}

// calendarRange は --start / --end を解釈します。省略時は now から24時間です
func calendarRange(startStr, endStr string, now time.Time) (time.Time, time.Time, error) {
	start := now
	if startStr != "" {
		t, err := time.Parse(time.RFC3339, startStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}

	end := start.Add(24 * time.Hour)
	if endStr != "" {
		t, err := time.Parse(time.RFC3339, endStr)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
		end = t
	}

	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end must be after --start")
	}
	return start, end, nil
}
