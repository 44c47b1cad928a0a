package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := fmt.Sprintf(`
[app]
env = "test"
secret_key = "shopctl-test-secret"

[database]
driver = "sqlite"
path = %q

[storage]
driver = "local"
local_dir = %q
`, filepath.Join(dir, "shop.db"), filepath.Join(dir, "uploads"))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSeed(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "seed", "--config", cfg, "--log-level", "error", "--fake", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 3 categories and 5 products")

	out, err = execute(t, "seed", "--config", cfg, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 0 categories and 0 products")

	_, err = execute(t, "seed", "--config", cfg, "--fake", "-1")
	assert.Error(t, err)
}

func TestCreateAdmin(t *testing.T) {
	cfg := writeConfig(t)

	out, err := execute(t, "create-admin", "--config", cfg, "--log-level", "error",
		"--email", "Root@Example.com", "--password", "Admin1!x")
	require.NoError(t, err)
	assert.Contains(t, out, "Admin Root@Example.com created")

	t.Setenv("ADMIN_EMAIL", "root@example.com")
	t.Setenv("ADMIN_PASSWORD", "Other2@y")
	out, err = execute(t, "create-admin", "--config", cfg, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "is now an admin")
}

func TestCreateAdminNeedsCredentials(t *testing.T) {
	t.Setenv("ADMIN_EMAIL", "")
	t.Setenv("ADMIN_PASSWORD", "")

	_, err := execute(t, "create-admin", "--email", "root@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email and password are required")
}
