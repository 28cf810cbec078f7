package ui

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ternarybob/docsprobe/internal/common"
)

// DefaultTestConfigPath is used when DOCSPROBE_TEST_CONFIG is unset
const DefaultTestConfigPath = "../config/docsprobe-test.toml"

// skipReason is set by TestMain when the live suite cannot run
var skipReason string

// LoadTestConfig loads the UI test configuration (env overrides still apply)
func LoadTestConfig() (*common.Config, error) {
	path := os.Getenv("DOCSPROBE_TEST_CONFIG")
	if path == "" {
		path = DefaultTestConfigPath
	}
	config, err := common.LoadFromFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load test config %s: %w", path, err)
	}
	return config, nil
}

// VerifySiteConnectivity checks the site answers with 200 OK
func VerifySiteConnectivity(siteURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(siteURL)
	if err != nil {
		return fmt.Errorf("site not accessible at %s: %w", siteURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("site returned status %d (expected 200 OK)", resp.StatusCode)
	}

	fmt.Printf("   Site URL: %s\n", siteURL)
	fmt.Printf("   Status: 200 OK\n")
	return nil
}
