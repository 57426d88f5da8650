package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/pixels/internal/debuglog"
)

//go:embed viewers.toml
var viewersTOML []byte

// ViewerDefinition describes how to start one image viewer.
type ViewerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Command     string   `toml:"command,omitempty"`
	URLs        bool     `toml:"urls"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

type viewersFile struct {
	Viewers map[string]ViewerDefinition `toml:"viewers"`
}

type ViewerRegistry struct {
	viewers map[string]ViewerDefinition
	goos    string
}

// DefaultOverridePaths are read, in order, on top of the built-in table.
func DefaultOverridePaths() []string {
	paths := []string{"./viewers.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".config", "pixels", "viewers.toml")}, paths...)
	}
	return paths
}

// NewViewerRegistry decodes the embedded viewer table and merges any
// override files that exist. Unreadable overrides are skipped.
func NewViewerRegistry(overrides ...string) (*ViewerRegistry, error) {
	var builtin viewersFile
	if err := toml.Unmarshal(viewersTOML, &builtin); err != nil {
		return nil, fmt.Errorf("parsing viewers.toml: %w", err)
	}
	r := &ViewerRegistry{viewers: builtin.Viewers, goos: runtime.GOOS}
	if r.viewers == nil {
		r.viewers = make(map[string]ViewerDefinition)
	}

	for _, path := range overrides {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var user viewersFile
		if err := toml.Unmarshal(data, &user); err != nil {
			debuglog.Warnf("ignoring %s: %v", path, err)
			continue
		}
		for name, def := range user.Viewers {
			r.viewers[name] = def
		}
	}
	return r, nil
}

// Lookup returns the definition for name, if any.
func (r *ViewerRegistry) Lookup(name string) (ViewerDefinition, bool) {
	def, ok := r.viewers[name]
	return def, ok
}

// Executable is the program started for name.
func (r *ViewerRegistry) Executable(name string) string {
	if def, ok := r.viewers[name]; ok && def.Command != "" {
		return def.Command
	}
	return name
}

// SupportsURL reports whether name can open a remote URL. Viewers missing
// from the table are assumed to.
func (r *ViewerRegistry) SupportsURL(name string) bool {
	def, ok := r.viewers[name]
	return !ok || def.URLs
}

// Command builds the command that shows target in viewer name.
func (r *ViewerRegistry) Command(name, target string) (*exec.Cmd, error) {
	def, ok := r.viewers[name]
	if !ok {
		return exec.Command(name, target), nil
	}
	if len(def.Platforms) > 0 && !slices.Contains(def.Platforms, r.goos) {
		return nil, fmt.Errorf("%s not supported on %s", name, r.goos)
	}

	args := append(slices.Clone(r.args(def)), target)
	return exec.Command(r.Executable(name), args...), nil
}

func (r *ViewerRegistry) args(def ViewerDefinition) []string {
	var specific []string
	switch r.goos {
	case "darwin":
		specific = def.ArgsDarwin
	case "linux":
		specific = def.ArgsLinux
	case "windows":
		specific = def.ArgsWindows
	}
	if len(specific) > 0 {
		return specific
	}
	return def.Args
}

func isRemote(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
