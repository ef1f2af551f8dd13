package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

var resumeServerURL string

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume a render from its last checkpoint",
	Long: `Resumes a render job from its saved checkpoint by asking a running
lumenforge server to pick it back up. A new job is created starting from
the checkpoint's PassesCompleted and SamplingOffset; use 'status' to watch
it land.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeServerURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]
	url := fmt.Sprintf("%s/api/v1/jobs/%s/resume", resumeServerURL, jobID)

	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("no checkpoint found for job %s", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	var result struct {
		JobID       string `json:"jobId"`
		ResumedFrom string `json:"resumedFrom"`
		FromPass    int    `json:"fromPass"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	fmt.Printf("Resumed job %s as %s, starting from pass %d\n", result.ResumedFrom, result.JobID, result.FromPass)
	fmt.Printf("Use 'lumenforge status %s' to monitor progress\n", result.JobID)

	return nil
}
