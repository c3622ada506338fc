// client package provides a client context for invoking cam-whisperer API
// endpoints.
package client

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type ClientHttpContext struct {
	HttpClient     *http.Client
	serverEndpoint string
	scheme         string
}

type ClientHttpOptions struct {
	// Constructed host:port server endpoint
	ServerEndpoint string
}

type ClientHttpTLSOptions struct {
	ClientHttpOptions
	TrustedCaPath string
}

// createTlsTransport is a private helper function which wraps an HTTP transport
// layer with TLS, trusting the given CA bundle.
// This returns an HTTP Transport instance along with an error reflecting the failure
// state.
func createTlsTransport(trustedCaCertPath string) (*http.Transport, error) {
	// Load the CA that authorized the server's certs.
	log.Printf("Using trusted CA Certificate: %s\n", trustedCaCertPath)
	caCrtContent, err := os.ReadFile(trustedCaCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA cert %s: %v", trustedCaCertPath, err)
	}

	// Create a CA certificate pool, in order for the certificate to be
	// validated.
	caCrtPool := x509.NewCertPool()
	caCrtPool.AppendCertsFromPEM(caCrtContent)

	t := &http.Transport{
		TLSClientConfig: &tls.Config{
			RootCAs: caCrtPool,
		},
	}

	return t, nil
}

// NewClientContext creates a plain-HTTP Client Context instance.
// This returns an http client instance along with an error reflecting the failure state.
func NewClientContext(opt ClientHttpOptions) (*ClientHttpContext, error) {
	client := http.Client{
		// Discovery scans and apply jobs can take a while to respond.
		Timeout: 2 * time.Minute,
	}

	return &ClientHttpContext{
		HttpClient:     &client,
		serverEndpoint: opt.ServerEndpoint,
		scheme:         "http",
	}, nil
}

// NewClientContextWithTLS creates a Client HTTP Context instance, wrapped in TLS.
// This returns an http client instance along with an error reflecting the failure state.
func NewClientContextWithTLS(opt ClientHttpTLSOptions) (*ClientHttpContext, error) {
	// Wrap TLS around the HTTP Transport.
	httpTransport, err := createTlsTransport(opt.TrustedCaPath)
	if err != nil {
		return nil, fmt.Errorf("failed client context creation: %v", err)
	}

	client := &http.Client{
		Transport: httpTransport,
		Timeout:   2 * time.Minute,
	}

	return &ClientHttpContext{
		HttpClient:     client,
		serverEndpoint: opt.ServerEndpoint,
		scheme:         "https",
	}, nil
}

// Invoke is a Client HTTP Context function which invokes a cam-whisperer API
// endpoint, handling HTTP/HTTPS, URI construction, and JSON serialization of
// the given request body.
// This returns the response body along with an error instance reflecting the
// failure state.
func (ctx *ClientHttpContext) Invoke(apiEndpoint string, httpMethod string, requestBody interface{}) ([]byte, error) {
	endpoint := fmt.Sprintf("%s://%s/%s", ctx.scheme, ctx.serverEndpoint, apiEndpoint)

	// Serialize the request body, if one was supplied.
	reqBody := &bytes.Buffer{}
	if requestBody != nil {
		if err := json.NewEncoder(reqBody).Encode(requestBody); err != nil {
			return nil, fmt.Errorf("failed to serialize request body: %v", err)
		}
	}

	req, err := http.NewRequest(httpMethod, endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to construct http request context: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.Println("Invoking a request to endpoint:", endpoint)
	resp, err := ctx.HttpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to invoke %s request with server: %v", httpMethod, err)
	}
	defer resp.Body.Close()

	resBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return resBody, fmt.Errorf("http request resulted in a non-OK response code: %d: %s", resp.StatusCode, resBody)
	}

	return resBody, nil
}
