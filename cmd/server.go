package cmd

import (
	"fmt"
	"strconv"

	"github.com/bneidlinger/cam-whisperer/internal/config"
	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/server"
	"github.com/spf13/cobra"
)

func handleServerCmd(cmd *cobra.Command, args []string) error {
	// Extract & construct server options.
	port, err := strconv.ParseUint(cmd.PersistentFlags().Lookup("port").Value.String(), 10, 16)
	if err != nil {
		return fmt.Errorf("failed to parse port: %v", err)
	}

	opts := &server.ServerOpts{
		ServerCertificate: cmd.PersistentFlags().Lookup("srvCrt").Value.String(),
		ServerKey:         cmd.PersistentFlags().Lookup("srvKey").Value.String(),
		HostEndpoint:      cmd.PersistentFlags().Lookup("host").Value.String(),
		PortEndpoint:      uint16(port),
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %v", err)
	}

	p, err := pipeline.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to assemble pipeline: %v", err)
	}

	if err := server.Run(*rootCtx.Context, opts, p); err != nil {
		return fmt.Errorf("failed server command: %v", err)
	}
	return nil
}

func NewServerCommand() *cobra.Command {
	srvCmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the server on given endpoint with options.",
		RunE:  handleServerCmd,
	}

	srvCmd.PersistentFlags().String("srvCrt", "", "Path to server's certificate. TLS is enabled when both srvCrt and srvKey are set.")
	srvCmd.PersistentFlags().String("srvKey", "", "Path to server's key.")
	srvCmd.PersistentFlags().String("host", "localhost", "Server hostname to serve on.")
	srvCmd.PersistentFlags().Uint("port", 3000, "Server port to serve on.")

	return srvCmd
}
