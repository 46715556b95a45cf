// ABOUTME: Detects hosted (App Service / Functions) versus local execution
// ABOUTME: Locally, loads the nearest .env file found walking up from a start directory

package runtimeenv

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// hostMarkers are set by Azure App Service and Azure Functions.
var hostMarkers = []string{
	"WEBSITE_INSTANCE_ID",
	"WEBSITE_SITE_NAME",
	"FUNCTIONS_WORKER_RUNTIME",
}

// IsCloud reports whether the process runs on a managed Azure host.
func IsCloud() bool {
	for _, key := range hostMarkers {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// FindEnvFile returns the first .env found in start or any of its parents,
// or "" when none exists.
func FindEnvFile(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", start, err)
	}

	for {
		candidate := filepath.Join(dir, ".env")
		info, err := os.Stat(candidate)
		switch {
		case err == nil && !info.IsDir():
			return candidate, nil
		case err != nil && !errors.Is(err, fs.ErrNotExist):
			return "", fmt.Errorf("checking %s: %w", candidate, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadLocalEnvIfNeeded loads the nearest .env into the process environment
// unless running in the cloud. Variables already set are left untouched.
// It returns the file that was loaded, or "".
func LoadLocalEnvIfNeeded(start string) (string, error) {
	if IsCloud() {
		return "", nil
	}

	path, err := FindEnvFile(start)
	if err != nil || path == "" {
		return "", err
	}
	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("loading %s: %w", path, err)
	}
	return path, nil
}
