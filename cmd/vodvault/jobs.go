package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"vodvault/internal/config"
	"vodvault/internal/store"
)

var jobsLimit int

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List recent jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		db, err := store.NewSQLiteDB(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		jobs, err := db.ListJobs(jobsLimit)
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Type", "Status", "Created", "Error"})
		for _, job := range jobs {
			errMsg := ""
			if job.Error != nil {
				errMsg = *job.Error
			}
			t.AppendRow(table.Row{
				shortID(job.ID),
				job.Type,
				job.Status,
				job.CreatedAt.Format("2006-01-02 15:04:05"),
				errMsg,
			})
		}
		t.SetStyle(table.StyleLight)
		t.Render()
		return nil
	},
}

// shortID abbreviates a job id for display. Ids are normally uuids, but
// hand-inserted rows may carry shorter ones.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	jobsCmd.Flags().IntVarP(&jobsLimit, "limit", "n", 20, "maximum number of jobs to show")
}
