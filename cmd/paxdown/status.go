package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"paxdown/internal/catalog"
	"paxdown/internal/phase"
	"paxdown/internal/status"
	"paxdown/internal/tracker"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what is currently tracked",
	Long:  `Show the tracked event, its current phase, and the label the next tick would render.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
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
		fmt.Println("No event is being tracked.")
		return nil
	}

	cat, err := catalog.Load(nil)
	if err != nil {
		return err
	}
	def, err := cat.Lookup(rec.Event)
	if err != nil {
		return err
	}
	day, err := time.Parse(tracker.DateFormat, rec.StartDate)
	if err != nil {
		return fmt.Errorf("persisted start date %q is invalid", rec.StartDate)
	}

	anchor := def.Anchor(day.Year(), day.Month(), day.Day())
	p := phase.Classify(def, anchor, time.Now())

	fmt.Printf("Event:      %s (%d days, %s)\n", rec.Event, def.Days, def.Timezone)
	fmt.Printf("First day:  %s\n", rec.StartDate)
	fmt.Printf("Phase:      %s\n", p.Kind)
	switch p.Kind {
	case phase.Pending:
		fmt.Printf("Starts in:  %s\n", p.Remaining.Round(time.Second))
	case phase.InHours:
		fmt.Printf("Progress:   %d%%\n", p.Percent)
	}
	if name, ok := status.Render(rec.Event, p); ok {
		fmt.Printf("Label:      %s\n", name)
	} else {
		fmt.Println("Label:      (out of hours, no update issued)")
	}

	channelID, err := st.ChannelID()
	if err == nil {
		if channelID == "" {
			channelID = "(not set)"
		}
		fmt.Printf("Channel:    %s\n", channelID)
	}
	return nil
}
