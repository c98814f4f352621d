// Package testutil provides shared test helpers for creating config files.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// CredentialEnvs are the environment variables an API key can be read from.
var CredentialEnvs = []string{"API_KEY", "GEMINI_API_KEY", "OPENAI_API_KEY"}

// ClearCredentials unsets every API key for the duration of the test.
func ClearCredentials(t *testing.T) {
	t.Helper()
	for _, env := range CredentialEnvs {
		t.Setenv(env, "")
	}
}

// SetupTestConfig creates a config file that keeps the history in tmpDir and
// clears every API key so AI evaluation is not configured.
// Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()
	ClearCredentials(t)

	configContent := "history:\n" +
		"  backend: file\n" +
		"  file: " + filepath.Join(tmpDir, "history", "history.yml") + "\n"

	configPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))
	return configPath
}
