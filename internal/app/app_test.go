package app

import (
	"path/filepath"
	"testing"

	"certgen/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.UploadDir = filepath.Join(dir, "uploads")
	cfg.CertificateDir = filepath.Join(dir, "certificates")
	cfg.VerificationDir = filepath.Join(dir, "verification")
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	assert.NotNil(t, app.CertificateController)
	assert.Equal(t, "existence", app.Checker.Strategy())
	assert.Equal(t, "pdf", app.CertificateRepo.Extension())
	assert.DirExists(t, cfg.CertificateDir)
	assert.DirExists(t, cfg.VerificationDir)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Layout = "fancy"

	_, err := New(cfg)
	assert.ErrorContains(t, err, "invalid config")
}

func TestValidate_EmptyApp(t *testing.T) {
	assert.Error(t, (&App{}).validate())
}
