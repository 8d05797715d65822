package supervisor

import (
	"os"
	"path/filepath"
	"runtime"
)

// binaryLayout is one place a build pipeline puts the backend executable,
// relative to the shell executable's own directory. Keeping the layouts in a
// table keeps the priority order auditable: the same shell binary must find
// the backend in local dev trees, CI artifacts, and every packaged format.
type binaryLayout struct {
	// label names the layout in logs and error context
	label string

	// subdir is resolved against the shell executable's directory
	subdir string
}

// packagedLayouts are probed in order, after development locations.
var packagedLayouts = []binaryLayout{
	{label: "exe-dir", subdir: "."},
	{label: "bundled", subdir: "binaries"},
	{label: "resources", subdir: "resources"},
	{label: "parent-resources", subdir: filepath.Join("..", "resources")},
}

// Locator resolves the filesystem path of the companion backend executable.
type Locator struct {
	config *Config

	// exeDir is the directory of the running shell executable
	exeDir string

	// goos selects the executable name variants; overridable in tests
	goos string
}

// NewLocator creates a locator anchored at the running executable's directory.
func NewLocator(config *Config) (*Locator, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, ErrBinaryNotFound(config.BinaryName, nil).
			WithCause(err).
			WithSuggestion("Could not determine the shell executable's own path")
	}

	return &Locator{
		config: config,
		exeDir: filepath.Dir(exePath),
		goos:   runtime.GOOS,
	}, nil
}

// nameVariants returns the executable names to probe within each layout.
// Windows builds carry the .exe suffix; the bare name is probed as well so a
// cross-compiled tree still resolves.
func (l *Locator) nameVariants() []string {
	name := l.config.BinaryName
	if l.goos == "windows" {
		return []string{name + ".exe", name}
	}
	return []string{name}
}

// Candidates generates the ordered, non-unique list of paths to probe.
// Development locations come first (only when development mode is enabled),
// then each packaged layout in table order, each expanded per name variant.
func (l *Locator) Candidates() []string {
	variants := l.nameVariants()
	var candidates []string

	if l.config.Development {
		for _, dir := range l.config.DevBinDirs {
			for _, name := range variants {
				candidates = append(candidates, filepath.Join(dir, name))
			}
		}
	}

	for _, layout := range packagedLayouts {
		dir := filepath.Join(l.exeDir, layout.subdir)
		for _, name := range variants {
			candidates = append(candidates, filepath.Join(dir, name))
		}
	}

	return candidates
}

// Locate returns the first candidate that exists as a regular file.
// When nothing exists the returned error enumerates every path tried.
func (l *Locator) Locate() (string, error) {
	candidates := l.Candidates()

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if info.IsDir() {
			continue
		}
		return candidate, nil
	}

	return "", ErrBinaryNotFound(l.config.BinaryName, candidates)
}
