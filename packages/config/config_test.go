package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
followRedirects: true
maxRedirects: 5
headers:
  User-Agent: httpx-cli
profiles:
  staging:
    maxRedirects: 10
    headers:
      X-Env: staging
    auth:
      username: dev
      password: hunter2
  strict:
    followRedirects: false
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "httpx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeSample(t))
	require.NoError(t, err)

	p, err := cfg.Resolve("")
	require.NoError(t, err)
	assert.True(t, p.GetFollowRedirects())
	assert.Equal(t, 5, p.MaxRedirects)
	assert.Equal(t, "httpx-cli", p.Headers["User-Agent"])
	assert.Nil(t, p.Auth)
}

func TestResolve_ProfileOverridesDefaults(t *testing.T) {
	cfg, err := Load(writeSample(t))
	require.NoError(t, err)

	p, err := cfg.Resolve("staging")
	require.NoError(t, err)
	assert.Equal(t, 10, p.MaxRedirects)
	assert.Equal(t, "httpx-cli", p.Headers["User-Agent"])
	assert.Equal(t, "staging", p.Headers["X-Env"])
	require.NotNil(t, p.Auth)
	assert.Equal(t, "dev", p.Auth.Username)

	strict, err := cfg.Resolve("strict")
	require.NoError(t, err)
	assert.False(t, strict.GetFollowRedirects())
	assert.Equal(t, 5, strict.MaxRedirects)
}

func TestResolve_UnknownProfile(t *testing.T) {
	cfg, err := Load(writeSample(t))
	require.NoError(t, err)
	_, err = cfg.Resolve("missing")
	assert.Error(t, err)
}

func TestLoad_MissingFileSearchIsEmptyConfig(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(cwd) })

	cfg, err := Load("")
	require.NoError(t, err)
	p, err := cfg.Resolve("")
	require.NoError(t, err)
	assert.True(t, p.GetFollowRedirects())
}
