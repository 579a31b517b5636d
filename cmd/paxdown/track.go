package main

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"paxdown/internal/discord"
	"paxdown/internal/status"
	"paxdown/internal/tracker"
)

var setCmd = &cobra.Command{
	Use:   "set <event> <yyyy-mm-dd>",
	Short: "Start tracking an event",
	Long: `Start counting down to an event. The event id is one of the known
shows (east, west, south, unplugged, aus) and the date is the show's
first day. Replaces any event currently tracked.

Examples:
  paxdown set east 2026-04-10
  paxdown set AUS 2026-10-09`,
	Args: cobra.ExactArgs(2),
	RunE: runSet,
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop tracking and clear the countdown",
	Long:  `Stop the countdown, clear the persisted tracking state and leave a goodbye label on the channel.`,
	RunE:  runStop,
}

var channelCmd = &cobra.Command{
	Use:   "channel <channel-id>",
	Short: "Set the Discord channel to rename",
	Long: `Set the Discord channel (or category) whose name carries the
countdown. The id is persisted alongside the tracking state.

Example:
  paxdown channel 314857672585248769`,
	Args: cobra.ExactArgs(1),
	RunE: runChannel,
}

func init() {
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(channelCmd)
}

func runSet(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	t, st, err := buildTracker(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	defer t.Close()

	if err := t.Track(args[0], args[1]); err != nil {
		return err
	}

	snap := t.Snapshot()
	fmt.Printf("Tracking %s starting %s\n", snap.Event, snap.StartDate)
	fmt.Printf("Label: %s\n", snap.Name)

	if notifyDaemon(syscall.SIGHUP) {
		fmt.Println("Running daemon notified")
	} else {
		fmt.Println("No daemon running; start one with 'paxdown run' to keep the countdown ticking")
	}
	return nil
}

func runStop(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.TrackedEvent()
	if err != nil {
		return err
	}
	if rec == nil {
		return tracker.ErrNoTracking
	}

	if err := st.SetTrackedEvent(nil); err != nil {
		return fmt.Errorf("clearing tracking: %w", err)
	}

	if notifyDaemon(syscall.SIGHUP) {
		// The daemon notices the cleared record and issues the goodbye
		// update itself.
		fmt.Printf("Stopped tracking %s (daemon notified)\n", rec.Event)
		return nil
	}

	// No daemon: push the goodbye label from here.
	channelID, err := st.ChannelID()
	if err == nil && channelID != "" {
		client := discord.New(cfg.Discord.Token, discord.WithBaseURL(cfg.Discord.APIBase))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := client.RenameChannel(ctx, channelID, status.Goodbye(rec.Event)); err != nil {
			fmt.Printf("Warning: goodbye update failed: %v\n", err)
		}
	}
	fmt.Printf("Stopped tracking %s\n", rec.Event)
	return nil
}

func runChannel(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetChannelID(args[0]); err != nil {
		return err
	}
	fmt.Printf("Channel set to %s\n", args[0])

	if notifyDaemon(syscall.SIGHUP) {
		fmt.Println("Running daemon notified")
	}
	return nil
}
