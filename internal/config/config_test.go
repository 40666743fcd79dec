package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EhonBot/internal/domain"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("EHON_BOT_CONFIG", "")
	t.Setenv("RAKUTEN_APP_ID", "app-id")
	t.Setenv("RAKUTEN_AFFILIATE_ID", "aff-id")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TW_CLIENT_ID", "client")
	t.Setenv("TW_CLIENT_SECRET", "secret")
	t.Setenv("TW_REFRESH_TOKEN", "refresh")
}

func TestLoadEnvOverridesWinOverDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_MODEL", "gpt-4o")
	t.Setenv("HISTORY_PATH", "/var/lib/ehon/history.json")
	t.Setenv("GITHUB_OUTPUT", "/tmp/gh_output")

	cfg := Load()

	assert.Equal(t, "app-id", cfg.Catalog.AppID)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	assert.Equal(t, "/var/lib/ehon/history.json", cfg.History.Path)
	assert.Equal(t, "/tmp/gh_output", cfg.Twitter.OutputPath)
	assert.Equal(t, "001004001", cfg.Catalog.PictureGenreID)
	assert.Equal(t, 30, cfg.Catalog.Hits)
}

func TestLoadYAMLFileMergesOverDefaults(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte("logging:\n  level: debug\nselection:\n  tierOrder: author-first\n  fallbackDedup: true\nhistory:\n  retentionDays: 90\n")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	t.Setenv("EHON_BOT_CONFIG", path)

	cfg := Load()

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "author-first", cfg.Selection.TierOrder)
	assert.True(t, cfg.Selection.FallbackDedup)
	assert.Equal(t, 90, cfg.History.RetentionDays)
	assert.Equal(t, 10, cfg.Selection.BrowseAttempts, "unset fields keep defaults")
}

func TestValidateReportsFirstMissingCredential(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("OPENAI_API_KEY", "")

	cfg := Load()
	err := cfg.Validate()
	require.Error(t, err)

	var missing *domain.MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "OPENAI_API_KEY", missing.Name)
}

func TestValidatePassesWithAllCredentials(t *testing.T) {
	setRequiredEnv(t)

	cfg := Load()
	require.NoError(t, cfg.Validate())
}
