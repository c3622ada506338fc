package clientcmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/server/route/camera/interfaces"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Settings flags.
var (
	settingsOutPath *string
)

// handleClientSettingsCommand is a cobra callback handler for reading a
// camera's current settings through a running server instance. The result
// can optionally be written out as a YAML settings file for later editing
// and re-applying.
// This returns an error instance reflecting the failure state.
func handleClientSettingsCommand(cmd *cobra.Command, args []string) error {
	settingsReq := interfaces.SettingsRequest{
		Backend: adapter.Kind(*backendKind),
		Handle:  cameraHandle(),
	}

	resBody, err := clientContext.Invoke("camera/settings", http.MethodPost, settingsReq)
	if err != nil {
		return fmt.Errorf("settings query failed: %v", err)
	}

	settingsResp := &interfaces.SettingsResponse{}
	if err := json.Unmarshal(resBody, settingsResp); err != nil {
		return fmt.Errorf("failed to deserialize response: %v", err)
	}

	// Settings files round-trip as YAML.
	out, err := yaml.Marshal(settingsResp.Settings)
	if err != nil {
		return fmt.Errorf("failed to serialize settings: %v", err)
	}

	if *settingsOutPath != "" {
		if err := os.WriteFile(*settingsOutPath, out, 0644); err != nil {
			return fmt.Errorf("failed to write settings file %s: %v", *settingsOutPath, err)
		}
		log.Printf("Wrote current settings to %s\n", *settingsOutPath)
		return nil
	}

	log.Printf("Current settings for %s:\n%s", *cameraAddress, out)
	return nil
}

// NewClientSettingsCommand creates a new settings sub-command.
func NewClientSettingsCommand() *cobra.Command {
	clientSettingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "Reads a camera's current settings",
		RunE:  handleClientSettingsCommand,
	}

	settingsOutPath = clientSettingsCmd.PersistentFlags().String("out", "", "(Optional) Write the settings as YAML to the given file")

	return clientSettingsCmd
}
