package clientcmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/bneidlinger/cam-whisperer/server/route/camera/interfaces"
	"github.com/spf13/cobra"
)

// handleClientCapabilitiesCommand is a cobra callback handler for querying a
// camera's capability profile through a running server instance.
// This returns an error instance reflecting the failure state.
func handleClientCapabilitiesCommand(cmd *cobra.Command, args []string) error {
	capsReq := interfaces.CapabilitiesRequest{
		Backend: adapter.Kind(*backendKind),
		Handle:  cameraHandle(),
	}

	resBody, err := clientContext.Invoke("camera/capabilities", http.MethodPost, capsReq)
	if err != nil {
		return fmt.Errorf("capability query failed: %v", err)
	}

	capsResp := &interfaces.CapabilitiesResponse{}
	if err := json.Unmarshal(resBody, capsResp); err != nil {
		return fmt.Errorf("failed to deserialize response: %v", err)
	}

	// Re-serialize indented for the terminal.
	pretty, err := json.MarshalIndent(capsResp.Capabilities, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize capabilities: %v", err)
	}
	log.Printf("Capabilities for %s:\n%s\n", *cameraAddress, pretty)

	return nil
}

// NewClientCapabilitiesCommand creates a new capabilities sub-command.
func NewClientCapabilitiesCommand() *cobra.Command {
	clientCapsCmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Queries a camera's capability profile",
		RunE:  handleClientCapabilitiesCommand,
	}

	return clientCapsCmd
}
