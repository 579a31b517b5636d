package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"paxdown/internal/catalog"
	"paxdown/internal/config"
	"paxdown/internal/discord"
	"paxdown/internal/store"
	"paxdown/internal/tracker"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "paxdown",
	Short: "Keeps a Discord channel label counting down to the next PAX",
	Long: `paxdown tracks one upcoming PAX event and keeps a Discord channel's
name showing the countdown: days out before the show, percent complete
while the expo hall is open.

  run       Run the countdown daemon
  set       Start tracking an event ("set east 2026-04-10")
  stop      Stop tracking and clear the countdown
  channel   Set the Discord channel to rename
  status    Show what is currently tracked`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to config file")
}

// loadConfig reads the config file the --config flag points at, using
// the cached default-path loader when the flag is untouched.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if configPath == config.DefaultConfigPath {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFromPath(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStore builds the configured state backend.
func openStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Storage.Backend {
	case "sqlite":
		return store.OpenSQLite(cfg.StatePath())
	default:
		return store.NewFileStore(cfg.StatePath()), nil
	}
}

// renamerAdapter lets *discord.Client satisfy tracker.Renamer, whose
// method is named Rename rather than RenameChannel.
type renamerAdapter struct {
	client *discord.Client
}

func (a renamerAdapter) Rename(ctx context.Context, channelID, name string) error {
	return a.client.RenameChannel(ctx, channelID, name)
}

// buildTracker assembles the full tracker: catalog, store and Discord
// client, wired per the config.
func buildTracker(cfg *config.Config) (*tracker.Tracker, store.Store, error) {
	cat, err := catalog.Load(nil)
	if err != nil {
		return nil, nil, err
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Seed the persisted channel id from config on first use.
	if cfg.ChannelID != "" {
		if current, err := st.ChannelID(); err == nil && current == "" {
			if err := st.SetChannelID(cfg.ChannelID); err != nil {
				st.Close()
				return nil, nil, err
			}
		}
	}

	client := discord.New(cfg.Discord.Token, discord.WithBaseURL(cfg.Discord.APIBase))
	t := tracker.New(cat, st, renamerAdapter{client: client}, tracker.WithTickSpec(cfg.Tick))
	return t, st, nil
}
