package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oarkflow/recruiter/internal/activity"
	"github.com/oarkflow/recruiter/internal/config"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently sent emails",
	Long:  `Show the most recent send attempts from the activity log, newest first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		logFile := inDir(config.Defaults().Paths.LogFile)
		if cfg, err := loadConfig(); err == nil {
			logFile = cfg.Paths.LogFile
		}

		records, err := activity.Open(logFile).Recent(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(out, "No emails sent yet.")
			return nil
		}

		fmt.Fprintf(out, "Recent emails (%d):\n", len(records))
		for _, r := range records {
			mark := "✓"
			if !r.Success {
				mark = "✗"
			}
			fmt.Fprintf(out, "%s %s  %s (%s)\n", mark, r.Timestamp.Local().Format("2006-01-02 15:04"), r.Recipient, r.Company)
			fmt.Fprintf(out, "    Subject: %s\n", r.Subject)
			if msg := r.Failure(); msg != "" {
				fmt.Fprintf(out, "    Error:   %s\n", msg)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 5, "number of records to show (0 for all)")
}
