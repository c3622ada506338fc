package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/bneidlinger/cam-whisperer/pkg/pipeline"
	"github.com/bneidlinger/cam-whisperer/server/middleware"
	"github.com/bneidlinger/cam-whisperer/server/route"
	fileio "github.com/bneidlinger/cam-whisperer/utils/fileIO"
)

type ServerOpts struct {
	HostEndpoint string
	PortEndpoint uint16

	// Optional TLS material; both must be set to serve HTTPS.
	ServerCertificate string
	ServerKey         string
}

// Run serves the optimization-and-apply API until the context is
// cancelled.
func Run(ctx context.Context, opts *ServerOpts, p *pipeline.Pipeline) error {
	router := mux.NewRouter()

	// Add middleware.
	router.Use(middleware.RequestLogger)

	// Add server root endpoints.
	if err := route.InitRootRoute(router, p); err != nil {
		return fmt.Errorf("failed to create root server routes: %v", err)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", opts.HostEndpoint, opts.PortEndpoint),
		Handler:      router,
		ReadTimeout:  1 * time.Minute,
		WriteTimeout: 5 * time.Minute,
	}

	// Wind the server down with the root context.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("failed to shut the server down cleanly: %v\n", err)
		}
	}()

	useTLS := opts.ServerCertificate != "" && opts.ServerKey != ""
	if useTLS {
		if !fileio.FileExists(opts.ServerCertificate) {
			return fmt.Errorf("server certificate '%s' does not exist", opts.ServerCertificate)
		}
		if !fileio.FileExists(opts.ServerKey) {
			return fmt.Errorf("server key '%s' does not exist", opts.ServerKey)
		}
	}

	log.Printf("Listening on %s:%d.\n", opts.HostEndpoint, opts.PortEndpoint)
	var err error
	if useTLS {
		err = server.ListenAndServeTLS(opts.ServerCertificate, opts.ServerKey)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %v", err)
	}

	return nil
}
