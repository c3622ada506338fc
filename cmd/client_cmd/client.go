// clientcmd package provides a client sub-command for interacting directly with
// the API. This allows for an interactive synergy between server & client.
package clientcmd

import (
	"context"
	"fmt"
	"log"

	"github.com/bneidlinger/cam-whisperer/internal/client"
	"github.com/bneidlinger/cam-whisperer/pkg/adapter"
	"github.com/spf13/cobra"
)

// Shared client variables.
var (
	clientContext *client.ClientHttpContext
	rootContext   *context.Context
)

// Client flags
var (
	// Running Server API instance
	serverHost *string
	serverPort *uint

	// Optional TLS configuration
	clientTrustedCaPath *string

	// Shared backend selection flags.
	backendKind   *string
	cameraAddress *string
	cameraUser    *string
	cameraPass    *string
	cameraVmsId   *string
)

// setupClient configures a client instance for which to be used within
// client sub-commands.
// This returns an error instance reflecting the state of failure for
// configuring a client instance.
func setupClient(cmd *cobra.Command, args []string) error {
	var err error = nil
	svrEndpoint := fmt.Sprintf("%s:%d", *serverHost, *serverPort)

	// Check client construction with TLS.
	if *clientTrustedCaPath != "" {
		log.Println("Constructing client instance with TLS")
		clientContext, err = client.NewClientContextWithTLS(client.ClientHttpTLSOptions{
			ClientHttpOptions: client.ClientHttpOptions{
				ServerEndpoint: svrEndpoint,
			},
			TrustedCaPath: *clientTrustedCaPath,
		})

	} else {
		log.Println("Constructing insecure client instance")
		clientContext, err = client.NewClientContext(
			client.ClientHttpOptions{
				ServerEndpoint: svrEndpoint,
			},
		)
	}
	if err != nil {
		return fmt.Errorf("failed to create client context: %v", err)
	}

	return nil
}

// cameraHandle constructs an adapter handle from the shared backend flags.
func cameraHandle() adapter.Handle {
	return adapter.Handle{
		Address: *cameraAddress,
		Credentials: adapter.Credentials{
			Username: *cameraUser,
			Password: *cameraPass,
		},
		VMSID: *cameraVmsId,
	}
}

// NewClientCommand creates a client sub-command, returning a pointer to
// the command instance.
func NewClientCommand(ctx *context.Context) *cobra.Command {
	rootContext = ctx

	clientCmd := &cobra.Command{
		Use:   "client",
		Short: "Client API interface with a running cam-whisperer server instance",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Setup a client instance to be shared with the client sub-commands.
			if err := setupClient(cmd, args); err != nil {
				return err
			}

			return nil
		},
	}

	// Server API flags.
	serverHost = clientCmd.PersistentFlags().String("server", "localhost", "Host endpoint for a running cam-whisperer server")
	serverPort = clientCmd.PersistentFlags().Uint("port", 3000, "Listening port on a running cam-whisperer server")

	// Optional TLS flag.
	clientTrustedCaPath = clientCmd.PersistentFlags().String("trustedCa", "", "(Optional) Trusted CA bundle file path; enables HTTPS")

	// Backend selection flags, shared by camera-facing sub-commands.
	backendKind = clientCmd.PersistentFlags().String("backend", "dcp", "Backend adapter to go through (dcp|vms)")
	cameraAddress = clientCmd.PersistentFlags().String("address", "", "Camera network address")
	cameraUser = clientCmd.PersistentFlags().String("user", "", "Camera or VMS username")
	cameraPass = clientCmd.PersistentFlags().String("pass", "", "Camera or VMS password")
	cameraVmsId = clientCmd.PersistentFlags().String("vmsId", "", "VMS-internal camera identifier (vms backend only)")

	// Add client sub-commands.
	clientCmd.AddCommand(NewClientPingCommand())
	clientCmd.AddCommand(NewClientDiscoverCommand())
	clientCmd.AddCommand(NewClientCapabilitiesCommand())
	clientCmd.AddCommand(NewClientSettingsCommand())
	clientCmd.AddCommand(NewClientInventoryCommand())
	clientCmd.AddCommand(NewClientOptimizeCommand())
	clientCmd.AddCommand(NewClientApplyCommand())
	clientCmd.AddCommand(NewClientJobCommand())

	return clientCmd
}
