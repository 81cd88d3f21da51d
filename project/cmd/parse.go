package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"lunch-scheduler/project/domain"
	"lunch-scheduler/project/lunch"
)

var parseCmd = &cobra.Command{
	Use:   "parse <text>",
	Short: "Parse a mention and print the result without side effects",
	Long: `メッセージ本文から参加者と日時を抽出し、意図の判定結果と投稿されるメッセージ、
保存される予約を JSON で表示します。Slack やデータストアには接続しません。

Examples:
  lunch-scheduler parse "<@UBOT> <@U1> <@U2> 2024-07-20 12:30" --self UBOT --author U0`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var (
	parseSelfID   string
	parseAuthorID string
	parseChannel  string
	parseTimezone string
)

func init() {
	parseCmd.Flags().StringVar(&parseSelfID, "self", "", "Bot 自身のユーザーID（参加者から除外）")
	parseCmd.Flags().StringVar(&parseAuthorID, "author", "U0000000000", "投稿者のユーザーID")
	parseCmd.Flags().StringVar(&parseChannel, "channel", "", "予約に記録するチャンネルID")
	parseCmd.Flags().StringVar(&parseTimezone, "tz", "Asia/Tokyo", "空き時間の表示に使うタイムゾーン")
}

// parseResult は parse コマンドの出力です
type parseResult struct {
	Extraction domain.ExtractionResult `json:"extraction"`
	Intent     string                  `json:"intent"`
	Message    string                  `json:"message"`
	Record     *domain.BookingRecord   `json:"record"`
}

func runParse(cmd *cobra.Command, args []string) error {
	loc, err := time.LoadLocation(parseTimezone)
	if err != nil {
		return fmt.Errorf("invalid --tz: %w", err)
	}

	result := dryRun(args[0], parseSelfID, parseAuthorID, parseChannel, lunch.NewFormatter(loc), lunch.NewRecordBuilder())

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// dryRun はワークフローの解析と整形だけを行います
func dryRun(text, selfID, authorID, channel string, f *lunch.Formatter, rb *lunch.RecordBuilder) parseResult {
	extraction := lunch.ParseMessage(text, selfID)
	intent := lunch.Classify(extraction.HasMentions, extraction.HasDateTime)

	result := parseResult{
		Extraction: extraction,
		Intent:     intent.String(),
		Message:    f.Format(intent, authorID, extraction.DateTimeToken, extraction.MentionedUsers, nil),
	}
	record := rb.Build(authorID, extraction.DateTimeToken, extraction.MentionedUsers, channel)
	result.Record = &record
	return result
}
