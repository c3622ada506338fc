package clientcmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
	"github.com/bneidlinger/cam-whisperer/server/route/job/interfaces"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Apply flags.
var (
	applyCameraId     *string
	applySettingsPath *string
	applyVerify       *bool
	applyWatch        *bool
)

// handleClientApplyCommand is a cobra callback handler for starting an
// apply job on a running server instance. The intended settings are read
// from a YAML file, typically produced by the optimize or settings
// sub-commands.
// This returns an error instance reflecting the failure state.
func handleClientApplyCommand(cmd *cobra.Command, args []string) error {
	// Read & deserialize the intended settings file.
	content, err := os.ReadFile(*applySettingsPath)
	if err != nil {
		return fmt.Errorf("failed to read settings file %s: %v", *applySettingsPath, err)
	}
	intended := &settings.CameraSettings{}
	if err := yaml.Unmarshal(content, intended); err != nil {
		return fmt.Errorf("failed to deserialize settings file %s: %v", *applySettingsPath, err)
	}

	startReq := interfaces.StartJobRequest{
		CameraID: *applyCameraId,
		Backend:  adapter.Kind(*backendKind),
		Handle:   cameraHandle(),
		Intended: intended,
		Verify:   *applyVerify,
	}

	resBody, err := clientContext.Invoke("job/start", http.MethodPost, startReq)
	if err != nil {
		return fmt.Errorf("failed to start apply job: %v", err)
	}

	startResp := &interfaces.StartJobResponse{}
	if err := json.Unmarshal(resBody, startResp); err != nil {
		return fmt.Errorf("failed to deserialize response: %v", err)
	}

	log.Printf("Started job %s\n", startResp.JobID)
	if *applyWatch {
		return watchJob(startResp.JobID)
	}

	return nil
}

// NewClientApplyCommand creates a new apply sub-command.
func NewClientApplyCommand() *cobra.Command {
	clientApplyCmd := &cobra.Command{
		Use:   "apply",
		Short: "Starts an apply job pushing a settings file to a camera",
		RunE:  handleClientApplyCommand,
	}

	applyCameraId = clientApplyCmd.PersistentFlags().String("id", "", "Camera identifier")
	clientApplyCmd.MarkPersistentFlagRequired("id")
	applySettingsPath = clientApplyCmd.PersistentFlags().String("settings", "", "Path to the YAML settings file to apply")
	clientApplyCmd.MarkPersistentFlagRequired("settings")
	applyVerify = clientApplyCmd.PersistentFlags().Bool("verify", true, "Read settings back after applying to verify them")
	applyWatch = clientApplyCmd.PersistentFlags().Bool("watch", false, "Poll the job until it reaches a terminal state")

	return clientApplyCmd
}
