// Command healthcheck is the container probe for cmd/arena: it hits
// /healthz and decodes the pkg/health.SystemHealth body so a degraded or
// unhealthy component fails the probe even when the HTTP status itself is
// still 200 (pkg/health/handler.go returns 200 for both healthy and
// degraded).
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"living-economy-arena/econsim/pkg/health"
)

func main() {
	port := os.Getenv("ARENA_HEALTH_CHECK_PORT")
	if port == "" {
		port = "8081"
	}

	url := fmt.Sprintf("http://localhost:%s/healthz", port)

	client := &http.Client{Timeout: 2 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var snapshot health.SystemHealth
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "healthcheck: could not decode response: %v\n", err)
		os.Exit(1)
	}

	if snapshot.Status == health.StatusUnhealthy || snapshot.Status == health.StatusUnknown {
		fmt.Fprintf(os.Stderr, "healthcheck: system status %s\n", snapshot.Status)
		for name, c := range snapshot.Components {
			if c.Status != health.StatusHealthy {
				fmt.Fprintf(os.Stderr, "  %s: %s (%s)\n", name, c.Status, c.Detail)
			}
		}
		os.Exit(1)
	}

	os.Exit(0)
}
