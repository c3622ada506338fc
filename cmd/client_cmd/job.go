package clientcmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	jobpkg "github.com/bneidlinger/cam-whisperer/pkg/job"
	"github.com/bneidlinger/cam-whisperer/server/route/job/interfaces"
	"github.com/spf13/cobra"
)

// Job flags.
var (
	jobId        *string
	jobWatchFlag *bool
)

// fetchJob queries one job's status, returning the structured job record
// on success.
func fetchJob(id string) (*jobpkg.Job, error) {
	resBody, err := clientContext.Invoke(fmt.Sprintf("job/status/%s", id), http.MethodGet, nil)
	if err != nil {
		return nil, err
	}

	statusResp := &interfaces.JobStatusResponse{}
	if err := json.Unmarshal(resBody, statusResp); err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %v", err)
	}

	return statusResp.Job, nil
}

// printJob dumps a job record to the terminal.
func printJob(j *jobpkg.Job) {
	log.Printf("== Job %s ==\n", j.ID)
	log.Printf("- Camera: %s (%s backend)\n", j.CameraID, j.Backend)
	log.Printf("- State: %s\n", j.State)
	if j.Error != "" {
		log.Printf("- Error: %s\n", j.Error)
	}
	for _, step := range j.Steps {
		if step.Error != "" {
			log.Printf("- Step %s: %s (%s)\n", step.Name, step.State, step.Error)
		} else {
			log.Printf("- Step %s: %s\n", step.Name, step.State)
		}
	}
	if j.Verification != nil && j.Verification.Available {
		log.Printf("- Verified: %t\n", j.Verification.Verified)
		for _, mm := range j.Verification.Mismatches {
			log.Printf("  - Mismatch %s.%s: expected %s, got %s\n", mm.Category, mm.Name, mm.Expected, mm.Actual)
		}
	}
}

// watchJob polls a job until it reaches a terminal state or the root
// context winds down.
func watchJob(id string) error {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-(*rootContext).Done():
			return fmt.Errorf("interrupted while watching job %s", id)
		case <-ticker.C:
			j, err := fetchJob(id)
			if err != nil {
				return fmt.Errorf("failed to poll job %s: %v", id, err)
			}

			log.Printf("Job %s: %s\n", id, j.State)
			if j.State.Terminal() {
				printJob(j)
				return nil
			}
		}
	}
}

// handleClientJobCommand is a cobra callback handler for querying an apply
// job's status on a running server instance.
// This returns an error instance reflecting the failure state.
func handleClientJobCommand(cmd *cobra.Command, args []string) error {
	if *jobWatchFlag {
		return watchJob(*jobId)
	}

	j, err := fetchJob(*jobId)
	if err != nil {
		return fmt.Errorf("job status query failed: %v", err)
	}
	printJob(j)

	return nil
}

// NewClientJobCommand creates a new job sub-command.
func NewClientJobCommand() *cobra.Command {
	clientJobCmd := &cobra.Command{
		Use:   "job",
		Short: "Queries an apply job's status",
		RunE:  handleClientJobCommand,
	}

	jobId = clientJobCmd.PersistentFlags().String("id", "", "Job identifier")
	clientJobCmd.MarkPersistentFlagRequired("id")
	jobWatchFlag = clientJobCmd.PersistentFlags().Bool("watch", false, "Poll the job until it reaches a terminal state")

	return clientJobCmd
}
