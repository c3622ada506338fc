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

// Discover flags.
var (
	scanNetwork  *string
	scanTimeout  *int
	scanPageSize *int
)

// discoverCameras invokes a discovery scan on the chosen backend, returning
// the structured scan results on success.
func discoverCameras() (*interfaces.DiscoverResponse, error) {
	// Construct the request body.
	discoverReq := interfaces.DiscoverRequest{
		Backend:        adapter.Kind(*backendKind),
		Network:        *scanNetwork,
		TimeoutSeconds: *scanTimeout,
		PageSize:       *scanPageSize,
	}

	resBody, err := clientContext.Invoke("camera/discover", http.MethodPost, discoverReq)
	if err != nil {
		return nil, err
	}

	// Deserialize response into a known response struct.
	discoverResp := &interfaces.DiscoverResponse{}
	if err := json.Unmarshal(resBody, discoverResp); err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %v", err)
	}

	return discoverResp, nil
}

// handleClientDiscoverCommand is a cobra callback handler for running a
// discovery scan through a running server instance.
// This returns an error instance reflecting the failure state.
func handleClientDiscoverCommand(cmd *cobra.Command, args []string) error {
	scanResp, err := discoverCameras()
	if err != nil {
		return fmt.Errorf("discovery scan failed: %v", err)
	}

	log.Printf("Found %d cameras:", len(scanResp.Cameras))
	for _, cam := range scanResp.Cameras {
		log.Printf("== %s ==\n", cam.Address)
		log.Printf("- Vendor: %s\n", cam.Vendor)
		log.Printf("- Model: %s\n", cam.Model)
		log.Printf("- Serial: %s\n", cam.Serial)
		log.Printf("- Firmware: %s\n", cam.Firmware)
		if cam.VMSID != "" {
			log.Printf("- VmsId: %s\n", cam.VMSID)
		}
	}

	return nil
}

// NewClientDiscoverCommand creates a new discover sub-command.
func NewClientDiscoverCommand() *cobra.Command {
	clientDiscoverCmd := &cobra.Command{
		Use:   "discover",
		Short: "Scans the chosen backend for cameras",
		RunE:  handleClientDiscoverCommand,
	}

	scanNetwork = clientDiscoverCmd.PersistentFlags().String("network", "", "Network to probe (dcp backend broadcast scan)")
	scanTimeout = clientDiscoverCmd.PersistentFlags().Int("timeout", 10, "Scan deadline in seconds")
	scanPageSize = clientDiscoverCmd.PersistentFlags().Int("pageSize", 0, "Inventory page size (vms backend)")

	return clientDiscoverCmd
}
