package cli

import (
	"flag"
	"fmt"
	"net/url"

	"github.com/platinummonkey/tally/pkg/api"
)

func newGetCommand() *Command {
	cmd := &Command{
		Name:        "get",
		Description: "Evaluate one statistic",
		Flags:       flag.NewFlagSet("get", flag.ExitOnError),
		Run:         runGet,
	}

	cmd.Flags.String("server", defaultServer(), "Tally server URL")
	cmd.Flags.String("name", "", "Statistic name")
	cmd.Flags.String("filters", "", "Filter context as key=value pairs separated by commas")

	return cmd
}

func runGet(args []string) error {
	cmd := newGetCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	server := cmd.Flags.Lookup("server").Value.String()
	name := cmd.Flags.Lookup("name").Value.String()
	filters := cmd.Flags.Lookup("filters").Value.String()

	if name == "" {
		return fmt.Errorf("name is required")
	}

	query, err := filterQuery(filters)
	if err != nil {
		return err
	}

	statURL := fmt.Sprintf("%s/api/v1/statistics/%s", server, url.PathEscape(name))
	if encoded := query.Encode(); encoded != "" {
		statURL += "?" + encoded
	}

	var statistic api.StatisticResponse
	if err := getJSON(statURL, &statistic); err != nil {
		return err
	}

	fmt.Printf("%s = %g\n", statistic.Name, statistic.Value)
	return nil
}
