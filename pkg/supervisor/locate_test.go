package supervisor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFakeBinary(t *testing.T, dir, name string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755))
	return path
}

func testLocator(cfg *Config, exeDir, goos string) *Locator {
	return &Locator{config: cfg, exeDir: exeDir, goos: goos}
}

func TestLocator_Candidates_Order(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BinaryName = "whodb"

	loc := testLocator(cfg, "/opt/app", "linux")
	candidates := loc.Candidates()

	expected := []string{
		"/opt/app/whodb",
		"/opt/app/binaries/whodb",
		"/opt/app/resources/whodb",
		filepath.Join("/opt/app", "..", "resources", "whodb"),
	}
	assert.Equal(t, expected, candidates)
}

func TestLocator_Candidates_DevelopmentFirst(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BinaryName = "whodb"
	cfg.Development = true
	cfg.DevBinDirs = []string{"/src/whodb/bin", "/src/whodb/build"}

	loc := testLocator(cfg, "/opt/app", "linux")
	candidates := loc.Candidates()

	require.GreaterOrEqual(t, len(candidates), 6)
	assert.Equal(t, "/src/whodb/bin/whodb", candidates[0])
	assert.Equal(t, "/src/whodb/build/whodb", candidates[1])
	assert.Equal(t, "/opt/app/whodb", candidates[2])
}

func TestLocator_Candidates_WindowsVariants(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BinaryName = "whodb"

	loc := testLocator(cfg, `C:\app`, "windows")
	candidates := loc.Candidates()

	// The .exe variant is probed before the bare name inside each layout.
	assert.Equal(t, filepath.Join(`C:\app`, "whodb.exe"), candidates[0])
	assert.Equal(t, filepath.Join(`C:\app`, "whodb"), candidates[1])
}

func TestLocator_Locate_PriorityOrder(t *testing.T) {
	exeDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.BinaryName = "whodb"

	// Only the second layout holds a binary; Locate must pick it even though
	// the exe-dir layout is probed first.
	bundled := writeFakeBinary(t, filepath.Join(exeDir, "binaries"), "whodb")

	loc := testLocator(cfg, exeDir, "linux")
	path, err := loc.Locate()
	require.NoError(t, err)
	assert.Equal(t, bundled, path)

	// Once the exe-dir copy exists it wins over the bundled one.
	direct := writeFakeBinary(t, exeDir, "whodb")
	path, err = loc.Locate()
	require.NoError(t, err)
	assert.Equal(t, direct, path)
}

func TestLocator_Locate_SkipsDirectories(t *testing.T) {
	exeDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.BinaryName = "whodb"

	// A directory with the binary's name must not satisfy the probe.
	require.NoError(t, os.MkdirAll(filepath.Join(exeDir, "whodb"), 0o755))
	bundled := writeFakeBinary(t, filepath.Join(exeDir, "binaries"), "whodb")

	loc := testLocator(cfg, exeDir, "linux")
	path, err := loc.Locate()
	require.NoError(t, err)
	assert.Equal(t, bundled, path)
}

func TestLocator_Locate_NotFound(t *testing.T) {
	exeDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.BinaryName = "whodb"

	loc := testLocator(cfg, exeDir, "linux")
	_, err := loc.Locate()
	require.Error(t, err)
	assert.True(t, IsErrorCode(err, ErrorCodeBinaryNotFound))

	// The error carries the full probe list so a bug report shows exactly
	// where the shell looked.
	var supErr *SupervisorError
	require.ErrorAs(t, err, &supErr)
	assert.Equal(t, loc.Candidates(), supErr.Context["searched"])
}
