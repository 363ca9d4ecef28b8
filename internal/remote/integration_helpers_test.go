//go:build integration
// +build integration

package remote

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/lachiem1/giddycycles/internal/auth"
)

func integrationClient(t *testing.T) *Client {
	t.Helper()
	key, err := auth.LoadAPIKey()
	if err != nil {
		t.Fatalf("failed to load api key: %v", err)
	}
	if baseURL := strings.TrimSpace(os.Getenv("GIDDYCYCLES_API_URL")); baseURL != "" {
		return NewWithBaseURL(key, baseURL)
	}
	return New(key)
}

func Example_integrationRoutesCommand() {
	fmt.Println("go test -tags=integration ./internal/remote -v")
	// Output: go test -tags=integration ./internal/remote -v
}
