package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slatepick/slatepick/internal/models"
)

func TestLoad_AliasAndDefaults(t *testing.T) {
	t.Setenv("BALLDONTLIE_API_KEY", "")
	t.Setenv("BDL_API_KEY", "bdl-alias-key")
	t.Setenv("ENABLE_DEMO", "true")
	t.Setenv("FETCH_TIMEOUT", "20s")

	cfg := Load()

	assert.Equal(t, "bdl-alias-key", cfg.BallDontLieAPIKey, "alias env var honored")
	assert.True(t, cfg.EnableDemo)
	assert.Equal(t, 15*time.Second, cfg.FetchTimeout, "per-call timeout capped")
	assert.Equal(t, 30*time.Second, cfg.SlateDeadline)
	assert.Equal(t, 16, cfg.FanoutWorkers)
}

func TestLoad_SnapshotDirFromVolume(t *testing.T) {
	t.Setenv("RAILWAY_VOLUME_MOUNT_PATH", "/mnt/vol")

	cfg := Load()
	assert.Equal(t, filepath.Join("/mnt/vol", "snapshots"), cfg.SnapshotDir)
}

func TestSecretValues_CoversCredentials(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "odds-secret")
	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")

	cfg := Load()
	vals := cfg.SecretValues()
	assert.Contains(t, vals, "odds-secret")
	assert.Contains(t, vals, "postgres://u:p@h/db")
}

func TestLoadTuning_MissingFileFactory(t *testing.T) {
	tun, err := LoadTuning(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultEngineWeights(), tun.Engines)
	assert.Equal(t, 5.5, tun.Publish.QualityFloor)
	assert.Equal(t, 13, tun.Publish.MaxTotal)
}

func TestLoadTuning_FileOverride(t *testing.T) {
	dir := t.TempDir()
	body := []byte("publish:\n  max_total: 10\n  quality_floor: 6.0\nmicro:\n  multipliers:\n    sharp_split: 2.0\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tuning.yaml"), body, 0o644))

	tun, err := LoadTuning(dir)
	require.NoError(t, err)

	assert.Equal(t, 10, tun.Publish.MaxTotal)
	assert.Equal(t, 6.0, tun.Publish.QualityFloor)
	assert.InDelta(t, 1.15, tun.Micro.Clamped(models.PillarSharpSplit), 1e-9, "drift clamped to +15%")
	assert.Equal(t, 1.0, tun.Micro.Clamped(models.PillarHookDiscipline), "untuned pillar stays factory")
}

func TestLoadTuning_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tuning.yaml"), []byte("publish: ["), 0o644))

	_, err := LoadTuning(dir)
	assert.Error(t, err)
}

func TestProfile_UnknownSport(t *testing.T) {
	tun := DefaultTuning()
	p := tun.Profile(models.Sport("cricket"))
	assert.True(t, p.Indoor)
	assert.Equal(t, 1.0, p.VarianceFactor)
}
