package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "lunch-scheduler",
	Short: "Slack bot that schedules lunch from app mentions",
	Long: `Slack のメンションからランチの参加者と日時を読み取り、
確認メッセージを投稿して予約を保存する Bot です。

Commands:
  serve            Slack Events API と Cloud Tasks のコールバックを受け付ける
  parse <text>     メッセージを解析して結果を表示する（外部呼び出しなし）
  calendar         Google Calendar から予定と空き時間を取得する
  version          バージョンを表示する`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "lunch-scheduler %s\n", version)
		fmt.Fprintf(out, "Commit: %s\n", commit)
		fmt.Fprintf(out, "Date: %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}
