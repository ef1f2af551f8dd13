package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusServerURL string

var statusCmd = &cobra.Command{
	Use:   "status [job-id]",
	Short: "Query server status or a specific job",
	Long: `Queries a running lumenforge server for job status.
If no job-id is given, lists every job; otherwise shows detailed status
for that one job.`,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServerURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listJobs(fmt.Sprintf("%s/api/v1/jobs", statusServerURL))
	}
	jobID := args[0]
	return getJobStatus(fmt.Sprintf("%s/api/v1/jobs/%s/status", statusServerURL, jobID), jobID)
}

func listJobs(url string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var jobs []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&jobs); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Println("No jobs found")
		return nil
	}

	fmt.Printf("Found %d job(s):\n\n", len(jobs))
	for _, job := range jobs {
		fmt.Printf("Job ID: %s\n", job["ID"])
		fmt.Printf("  State: %s\n", job["State"])
		if cfg, ok := job["Config"].(map[string]interface{}); ok {
			fmt.Printf("  Scene: %v (%vx%v)\n", cfg["scenePath"], cfg["width"], cfg["height"])
		}
		if passes, ok := job["PassesCompleted"].(float64); ok && passes > 0 {
			fmt.Printf("  Passes completed: %.0f\n", passes)
		}
		fmt.Println()
	}

	return nil
}

func getJobStatus(url, jobID string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned error: %s", string(body))
	}

	var status map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	fmt.Printf("Job: %s\n", status["ID"])
	fmt.Printf("State: %s\n\n", status["State"])

	if cfg, ok := status["Config"].(map[string]interface{}); ok {
		fmt.Println("Configuration:")
		fmt.Printf("  Scene: %v\n", cfg["scenePath"])
		fmt.Printf("  Resolution: %vx%v\n", cfg["width"], cfg["height"])
		fmt.Printf("  AA passes: %v\n", cfg["aaPasses"])
		fmt.Printf("  Adaptive: %v\n", cfg["adaptive"])
		fmt.Println()
	}

	fmt.Println("Progress:")
	if passes, ok := status["PassesCompleted"].(float64); ok {
		fmt.Printf("  Passes completed: %.0f\n", passes)
	}
	if dirty, ok := status["DirtyPixels"].(float64); ok {
		fmt.Printf("  Dirty pixels: %.0f\n", dirty)
	}
	if threshold, ok := status["Threshold"].(float64); ok {
		fmt.Printf("  Threshold: %.4f\n", threshold)
	}

	if start, ok := status["StartTime"].(string); ok {
		if t, err := time.Parse(time.RFC3339, start); err == nil {
			fmt.Printf("  Started: %s\n", t.Format(time.RFC3339))
		}
	}

	if errMsg, ok := status["Error"].(string); ok && errMsg != "" {
		fmt.Printf("\nError: %s\n", errMsg)
	}

	return nil
}
