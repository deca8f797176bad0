package httpx

import (
	"net/http"
	"time"
)

const defaultExternalHTTPTimeout = 90 * time.Second

var externalHTTPClient = &http.Client{Timeout: defaultExternalHTTPTimeout}

// ConfigureExternalHTTPClient sets the shared outbound client timeout from
// config and returns the value actually applied.
func ConfigureExternalHTTPClient(seconds int) time.Duration {
	if seconds > 0 {
		externalHTTPClient.Timeout = time.Duration(seconds) * time.Second
	}
	return externalHTTPClient.Timeout
}

// ExternalHTTPClient is the shared client for calls to external APIs.
func ExternalHTTPClient() *http.Client {
	return externalHTTPClient
}
