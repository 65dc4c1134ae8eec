package cli

import (
	"flag"
	"fmt"
	"sort"

	"github.com/platinummonkey/tally/pkg/api"
)

func newAllCommand() *Command {
	cmd := &Command{
		Name:        "all",
		Description: "Evaluate every statistic under one filter context",
		Flags:       flag.NewFlagSet("all", flag.ExitOnError),
		Run:         runAll,
	}

	cmd.Flags.String("server", defaultServer(), "Tally server URL")
	cmd.Flags.String("filters", "", "Filter context as key=value pairs separated by commas")
	cmd.Flags.String("except", "", "Statistics to skip, separated by commas")

	return cmd
}

func runAll(args []string) error {
	cmd := newAllCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	server := cmd.Flags.Lookup("server").Value.String()
	filters := cmd.Flags.Lookup("filters").Value.String()
	except := cmd.Flags.Lookup("except").Value.String()

	query, err := filterQuery(filters)
	if err != nil {
		return err
	}
	query.Set("values", "true")
	for _, name := range splitNames(except) {
		query.Add("except", name)
	}

	var values api.ValuesResponse
	allURL := fmt.Sprintf("%s/api/v1/statistics?%s", server, query.Encode())
	if err := getJSON(allURL, &values); err != nil {
		return err
	}

	names := make([]string, 0, len(values.Values))
	for name := range values.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Printf("%s = %g\n", name, values.Values[name])
	}
	return nil
}
