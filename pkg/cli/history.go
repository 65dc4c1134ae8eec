package cli

import (
	"flag"
	"fmt"
	"net/url"
	"time"

	"github.com/platinummonkey/tally/pkg/api"
)

func newHistoryCommand() *Command {
	cmd := &Command{
		Name:        "history",
		Description: "Show recorded snapshot history for a statistic",
		Flags:       flag.NewFlagSet("history", flag.ExitOnError),
		Run:         runHistory,
	}

	cmd.Flags.String("server", defaultServer(), "Tally server URL")
	cmd.Flags.String("name", "", "Statistic name")
	cmd.Flags.String("window", "", "How far back to look, as a duration like 168h (default 24h)")
	cmd.Flags.String("since", "", "Explicit start time in RFC 3339, overrides -window")

	return cmd
}

func runHistory(args []string) error {
	cmd := newHistoryCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	server := cmd.Flags.Lookup("server").Value.String()
	name := cmd.Flags.Lookup("name").Value.String()
	window := cmd.Flags.Lookup("window").Value.String()
	since := cmd.Flags.Lookup("since").Value.String()

	if name == "" {
		return fmt.Errorf("name is required")
	}

	query := url.Values{}
	if window != "" {
		query.Set("window", window)
	}
	if since != "" {
		query.Set("since", since)
	}

	historyURL := fmt.Sprintf("%s/api/v1/snapshots/%s", server, url.PathEscape(name))
	if encoded := query.Encode(); encoded != "" {
		historyURL += "?" + encoded
	}

	var history api.HistoryResponse
	if err := getJSON(historyURL, &history); err != nil {
		return err
	}

	if len(history.Points) == 0 {
		fmt.Printf("No snapshots for %s since %s\n", history.Name, history.Since.Format(time.RFC3339))
		return nil
	}

	for _, point := range history.Points {
		fmt.Printf("%s  %g\n", point.TakenAt.Format(time.RFC3339), point.Value)
	}

	if history.Summary != nil {
		s := history.Summary
		fmt.Printf("\n")
		fmt.Printf("count   %d\n", s.Count)
		fmt.Printf("mean    %g\n", s.Mean)
		fmt.Printf("median  %g\n", s.Median)
		fmt.Printf("std_dev %g\n", s.StdDev)
		fmt.Printf("p90     %g\n", s.P90)
		fmt.Printf("min     %g\n", s.Min)
		fmt.Printf("max     %g\n", s.Max)
	}
	return nil
}
