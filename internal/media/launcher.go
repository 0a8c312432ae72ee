// Package media plays synthesized audio summaries with a local player.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/pders01/bytenews/internal/config"
	"github.com/pders01/bytenews/internal/debuglog"
)

type Launcher struct {
	player   string
	registry *PlayerRegistry
	lookPath func(string) (string, error)
}

func NewLauncher(cfg *config.Config) *Launcher {
	registry, err := NewPlayerRegistry()
	if err != nil {
		// Continue with bare commands if player definitions can't be loaded
		debuglog.Warnf("player definitions: %v", err)
		registry = &PlayerRegistry{players: make(map[string]PlayerDefinition), goos: runtime.GOOS}
	}
	return newLauncher(cfg.Media, runtime.GOOS, registry, exec.LookPath)
}

func newLauncher(cfg config.MediaConfig, goos string, registry *PlayerRegistry, lookPath func(string) (string, error)) *Launcher {
	l := &Launcher{registry: registry, lookPath: lookPath}

	var candidates []string
	switch goos {
	case "darwin":
		candidates = cfg.Darwin
	case "linux":
		candidates = cfg.Linux
	case "windows":
		candidates = cfg.Windows
	default:
		candidates = cfg.Linux
	}

	l.player = l.findCommand(candidates...)
	if l.player == "" {
		l.player = cfg.DefaultOpener
	}
	return l
}

// Player is the command used for playback, or "" when none was found.
func (l *Launcher) Player() string {
	return l.player
}

// Play plays target (a file path or URL) and waits until the player exits
// or ctx is done.
func (l *Launcher) Play(ctx context.Context, target string) error {
	if l.player == "" {
		return fmt.Errorf("no audio player found")
	}

	cmd, err := l.registry.Command(ctx, l.player, target)
	if err != nil {
		cmd = exec.CommandContext(ctx, l.player, target)
	}

	debuglog.Debugf("playing %s with %v", target, cmd.Args)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", l.player, err)
	}
	return nil
}

func (l *Launcher) findCommand(commands ...string) string {
	for _, cmd := range commands {
		if _, err := l.lookPath(cmd); err == nil {
			return cmd
		}
	}
	return ""
}
