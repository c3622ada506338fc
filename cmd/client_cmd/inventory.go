package clientcmd

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/bneidlinger/cam-whisperer/server/route/camera/interfaces"
	"github.com/spf13/cobra"
)

// Inventory flags.
var (
	inventoryLimit *int
)

// listInventory invokes listing previously discovered cameras, returning a
// structured list of inventory entries on success.
func listInventory() (*interfaces.InventoryResponse, error) {
	inventoryReq := interfaces.InventoryRequest{
		Limit: *inventoryLimit,
	}

	resBody, err := clientContext.Invoke("camera/inventory", http.MethodGet, inventoryReq)
	if err != nil {
		return nil, err
	}

	inventoryResp := &interfaces.InventoryResponse{}
	if err := json.Unmarshal(resBody, inventoryResp); err != nil {
		return nil, fmt.Errorf("failed to deserialize response: %v", err)
	}

	return inventoryResp, nil
}

// handleClientInventoryCommand is a cobra callback handler for listing the
// persisted camera inventory.
// This returns an error instance reflecting the failure state.
func handleClientInventoryCommand(cmd *cobra.Command, args []string) error {
	inventory, err := listInventory()
	if err != nil {
		return fmt.Errorf("inventory listing failed: %v", err)
	}

	log.Printf("Found %d inventory entries:", len(inventory.Cameras))
	for _, cam := range inventory.Cameras {
		log.Printf("== %s ==\n", cam.Address)
		log.Printf("- Backend: %s\n", cam.Backend)
		log.Printf("- Vendor: %s\n", cam.Vendor)
		log.Printf("- Model: %s\n", cam.Model)
		if cam.VmsId != "" {
			log.Printf("- VmsId: %s\n", cam.VmsId)
		}
		log.Printf("- ModifiedAt: %s\n", cam.ModifiedAt.Local())
		log.Printf("- CreatedAt: %s\n", cam.CreatedAt.Local())
	}

	return nil
}

// NewClientInventoryCommand creates a new inventory sub-command.
func NewClientInventoryCommand() *cobra.Command {
	clientInventoryCmd := &cobra.Command{
		Use:   "inventory",
		Short: "Lists previously discovered cameras from the inventory",
		RunE:  handleClientInventoryCommand,
	}

	inventoryLimit = clientInventoryCmd.PersistentFlags().Int("limit", 10, "Maximum number of entries to list")

	return clientInventoryCmd
}
