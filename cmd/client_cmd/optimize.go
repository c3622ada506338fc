package clientcmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/pkg/settings"
	"github.com/bneidlinger/cam-whisperer/server/route/optimize/interfaces"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Optimize flags.
var (
	optCameraId       *string
	optScene          *string
	optPurpose        *string
	optLocation       *string
	optBandwidthLimit *float64
	optRetentionDays  *int
	optNotes          *string
	optSceneImagePath *string
	optOutPath        *string
)

// handleClientOptimizeCommand is a cobra callback handler for requesting an
// optimized configuration from a running server instance. The backend flags
// are optional here; when supplied, the server fills in the camera's
// capabilities and current settings itself.
// This returns an error instance reflecting the failure state.
func handleClientOptimizeCommand(cmd *cobra.Command, args []string) error {
	optimizeReq := interfaces.OptimizeRequest{
		Camera: settings.CameraContext{
			ID:       *optCameraId,
			Address:  *cameraAddress,
			Location: *optLocation,
			Scene:    settings.SceneType(*optScene),
			Purpose:  settings.CameraPurpose(*optPurpose),
		},
		Optimization: settings.OptimizationContext{
			BandwidthLimitMbps: *optBandwidthLimit,
			RetentionDays:      *optRetentionDays,
			Notes:              *optNotes,
		},
	}

	// Attach the scene still, if one was supplied.
	if *optSceneImagePath != "" {
		img, err := os.ReadFile(*optSceneImagePath)
		if err != nil {
			return fmt.Errorf("failed to read scene image %s: %v", *optSceneImagePath, err)
		}
		optimizeReq.Optimization.SceneImage = img
	}

	// Point the server at a backend when one was addressed.
	if *cameraAddress != "" || *cameraVmsId != "" {
		handle := cameraHandle()
		optimizeReq.Backend = adapter.Kind(*backendKind)
		optimizeReq.Handle = &handle
	}

	resBody, err := clientContext.Invoke("optimize", http.MethodPost, optimizeReq)
	if err != nil {
		return fmt.Errorf("optimization failed: %v", err)
	}

	optimizeResp := &interfaces.OptimizeResponse{}
	if err := json.Unmarshal(resBody, optimizeResp); err != nil {
		return fmt.Errorf("failed to deserialize response: %v", err)
	}
	result := optimizeResp.Result

	log.Printf("Provider: %s\n", result.Provider)
	log.Printf("Confidence: %.2f\n", result.Confidence)
	log.Printf("Explanation: %s\n", result.Explanation)
	for _, warning := range result.Warnings {
		log.Printf("Warning: %s\n", warning)
	}

	// Settings files round-trip as YAML so the result can feed the apply
	// sub-command directly.
	out, err := yaml.Marshal(result.Settings)
	if err != nil {
		return fmt.Errorf("failed to serialize recommended settings: %v", err)
	}

	if *optOutPath != "" {
		if err := os.WriteFile(*optOutPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write settings file %s: %v", *optOutPath, err)
		}
		log.Printf("Wrote recommended settings to %s\n", *optOutPath)
		return nil
	}

	log.Printf("Recommended settings:\n%s", out)
	return nil
}

// NewClientOptimizeCommand creates a new optimize sub-command.
func NewClientOptimizeCommand() *cobra.Command {
	clientOptimizeCmd := &cobra.Command{
		Use:   "optimize",
		Short: "Requests an optimized configuration for a camera",
		RunE:  handleClientOptimizeCommand,
	}

	optCameraId = clientOptimizeCmd.PersistentFlags().String("id", "", "Camera identifier")
	clientOptimizeCmd.MarkPersistentFlagRequired("id")
	optScene = clientOptimizeCmd.PersistentFlags().String("scene", "", "Scene type (entrance, parking-lot, hallway, ...)")
	clientOptimizeCmd.MarkPersistentFlagRequired("scene")
	optPurpose = clientOptimizeCmd.PersistentFlags().String("purpose", "", "Camera purpose (identification, overview, ...)")
	clientOptimizeCmd.MarkPersistentFlagRequired("purpose")
	optLocation = clientOptimizeCmd.PersistentFlags().String("location", "", "Free-form camera location")
	optBandwidthLimit = clientOptimizeCmd.PersistentFlags().Float64("bandwidth", 0, "Bandwidth budget in Mbps; 0 means unconstrained")
	optRetentionDays = clientOptimizeCmd.PersistentFlags().Int("retention", 0, "Recording retention in days; 0 means unconstrained")
	optNotes = clientOptimizeCmd.PersistentFlags().String("notes", "", "Operator notes forwarded to the provider")
	optSceneImagePath = clientOptimizeCmd.PersistentFlags().String("sceneImage", "", "(Optional) Path to a still frame of the scene")
	optOutPath = clientOptimizeCmd.PersistentFlags().String("out", "", "(Optional) Write the recommended settings as YAML to the given file")

	return clientOptimizeCmd
}
