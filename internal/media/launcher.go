package media

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/pders01/pixels/internal/config"
	"github.com/pders01/pixels/internal/debuglog"
	"github.com/pders01/pixels/internal/validation"
)

// Launcher shows images in an external viewer.
type Launcher struct {
	viewer        string
	defaultOpener string
	registry      *ViewerRegistry
	urls          *validation.URLValidator

	// start runs the built command; replaced in tests.
	start func(*exec.Cmd) error
}

// NewLauncher picks the first viewer from the running OS's list that is on
// PATH. Without one, targets go to the default opener.
func NewLauncher(cfg config.MediaConfig) *Launcher {
	registry, err := NewViewerRegistry(DefaultOverridePaths()...)
	if err != nil {
		debuglog.Warnf("viewer table unavailable: %v", err)
		registry = &ViewerRegistry{viewers: make(map[string]ViewerDefinition)}
	}
	return newLauncher(cfg, registry, exec.LookPath)
}

func newLauncher(cfg config.MediaConfig, registry *ViewerRegistry, lookPath func(string) (string, error)) *Launcher {
	l := &Launcher{
		defaultOpener: cfg.DefaultOpener,
		registry:      registry,
		urls:          validation.NewImageURLValidator(),
		start:         startDetached,
	}
	for _, name := range cfg.Viewers() {
		if _, err := lookPath(registry.Executable(name)); err == nil {
			l.viewer = name
			break
		}
	}
	if l.viewer == "" {
		l.viewer = l.defaultOpener
	}
	debuglog.Debugf("image viewer: %q (default opener %q)", l.viewer, l.defaultOpener)
	return l
}

// Viewer is the program images open in.
func (l *Launcher) Viewer() string { return l.viewer }

// Command builds the command for target without starting it. Remote URLs
// are validated, and go to the default opener when the chosen viewer only
// reads local files.
func (l *Launcher) Command(target string) (*exec.Cmd, error) {
	viewer := l.viewer
	if isRemote(target) {
		normalized, err := l.urls.ValidateAndNormalize(target)
		if err != nil {
			return nil, fmt.Errorf("refusing to open %q: %w", target, err)
		}
		target = normalized
		if !l.registry.SupportsURL(viewer) {
			viewer = l.defaultOpener
		}
	}
	if viewer == "" {
		return nil, errors.New("no image viewer found")
	}

	cmd, err := l.registry.Command(viewer, target)
	if err != nil {
		debuglog.Warnf("viewer %s: %v; using it without arguments", viewer, err)
		cmd = exec.Command(l.registry.Executable(viewer), target)
	}
	return cmd, nil
}

// Open starts the viewer detached and returns once it is running.
func (l *Launcher) Open(target string) error {
	cmd, err := l.Command(target)
	if err != nil {
		return err
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", cmd.Path, err)
	}
	return nil
}

func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
