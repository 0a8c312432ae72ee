package media

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/pelletier/go-toml/v2"

	"github.com/pders01/bytenews/internal/debuglog"
)

//go:embed players.toml
var playersTOML []byte

// PlayerDefinition defines how an audio player should be invoked
type PlayerDefinition struct {
	Description string   `toml:"description"`
	Platforms   []string `toml:"platforms"`
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

// PlayersConfig holds all player definitions
type PlayersConfig struct {
	Players map[string]PlayerDefinition `toml:"players"`
}

// PlayerRegistry manages player definitions
type PlayerRegistry struct {
	players map[string]PlayerDefinition
	goos    string
}

// NewPlayerRegistry creates a registry from the embedded TOML, then merges
// definitions from the user's config directory.
func NewPlayerRegistry() (*PlayerRegistry, error) {
	registry, err := parseRegistry(playersTOML)
	if err != nil {
		return nil, err
	}
	registry.loadUserConfig(userConfigPaths()...)
	return registry, nil
}

func parseRegistry(data []byte) (*PlayerRegistry, error) {
	var config PlayersConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing players.toml: %w", err)
	}
	if config.Players == nil {
		config.Players = make(map[string]PlayerDefinition)
	}
	return &PlayerRegistry{players: config.Players, goos: runtime.GOOS}, nil
}

func userConfigPaths() []string {
	paths := []string{"./players.toml"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append([]string{filepath.Join(home, ".config", "bytenews", "players.toml")}, paths...)
	}
	return paths
}

// loadUserConfig merges player definitions from paths; later files win.
func (r *PlayerRegistry) loadUserConfig(paths ...string) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var userConfig PlayersConfig
		if err := toml.Unmarshal(data, &userConfig); err != nil {
			debuglog.Warnf("ignoring %s: %v", path, err)
			continue
		}
		for name, def := range userConfig.Players {
			r.players[name] = def
		}
	}
}

// Command builds the command that plays target with playerName.
func (r *PlayerRegistry) Command(ctx context.Context, playerName, target string) (*exec.Cmd, error) {
	player, exists := r.players[playerName]
	if !exists {
		// Unknown players get the target as their only argument
		return exec.CommandContext(ctx, playerName, target), nil
	}

	supported := false
	for _, p := range player.Platforms {
		if p == r.goos {
			supported = true
			break
		}
	}
	if !supported {
		return nil, fmt.Errorf("%s not supported on %s", playerName, r.goos)
	}

	args := append(append([]string{}, r.args(player)...), target)
	return exec.CommandContext(ctx, playerName, args...), nil
}

// args returns the appropriate args for the current platform
func (r *PlayerRegistry) args(player PlayerDefinition) []string {
	switch r.goos {
	case "darwin":
		if len(player.ArgsDarwin) > 0 {
			return player.ArgsDarwin
		}
	case "linux":
		if len(player.ArgsLinux) > 0 {
			return player.ArgsLinux
		}
	case "windows":
		if len(player.ArgsWindows) > 0 {
			return player.ArgsWindows
		}
	}
	return player.Args
}

// Names lists the defined players.
func (r *PlayerRegistry) Names() []string {
	names := make([]string, 0, len(r.players))
	for name := range r.players {
		names = append(names, name)
	}
	return names
}
