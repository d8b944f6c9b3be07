// Package initcmder provides the init command for initializing a local .ragbot
// directory in the current working directory.
package initcmder

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/neehanthreddym/ragbot/pkg/config"
)

const (
	dirName = ".ragbot"
)

const initLongDesc string = `Initialize a new .ragbot/ directory in the current working directory.

Creates a local .ragbot/ directory that takes precedence over the default
~/.ragbot/ directory for storage, configuration, memory ledgers,
and other ragbot operations.

This is useful for maintaining separate ragbot state per project or directory.

With --preset, a config.toml is written with provider defaults. The preset
may be a known name (ollama, openai) or an http(s) URL serving a TOML
config to fetch.

Examples:
  ragbot init
  ragbot init --preset ollama
  ragbot init --preset openai
  ragbot init --preset https://example.com/team-ragbot-config.toml`

const initShortDesc string = "Initialize a local .ragbot/ directory"

func NewInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(preset)
		},
	}

	cmd.Flags().StringVar(&preset, "preset", "", "Provider preset name or URL of a config.toml to fetch")

	return cmd
}

func runInit(preset string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	info, err := os.Stat(dir)
	alreadyInitialized := err == nil && info.IsDir()

	if !alreadyInitialized {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating .ragbot directory: %w", err)
		}
	}

	cfg, err := resolvePreset(preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfger.SaveConfig(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	if alreadyInitialized {
		fmt.Printf("Already initialized: %s\n", dir)
		return nil
	}

	fmt.Printf("Initialized .ragbot directory: %s\n", dir)
	return nil
}

// resolvePreset turns the --preset value into a Config. An empty preset
// yields the defaults; an http(s) value fetches a remote config.toml.
func resolvePreset(preset string) (*config.Config, error) {
	if preset == "" {
		return config.NewDefaultConfig(), nil
	}

	if strings.HasPrefix(preset, "http://") || strings.HasPrefix(preset, "https://") {
		return fetchRemoteConfig(preset)
	}

	return config.PresetConfig(preset)
}

func fetchRemoteConfig(url string) (*config.Config, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetching config from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching config from %s: HTTP %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", url, err)
	}

	return config.ParseConfigTOML(data)
}
