package cli

import (
	"flag"
	"fmt"

	"github.com/platinummonkey/tally/pkg/api"
)

func newListCommand() *Command {
	cmd := &Command{
		Name:        "list",
		Description: "List registered statistic names",
		Flags:       flag.NewFlagSet("list", flag.ExitOnError),
		Run:         runList,
	}

	cmd.Flags.String("server", defaultServer(), "Tally server URL")

	return cmd
}

func runList(args []string) error {
	cmd := newListCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	server := cmd.Flags.Lookup("server").Value.String()

	var list api.ListResponse
	if err := getJSON(fmt.Sprintf("%s/api/v1/statistics", server), &list); err != nil {
		return err
	}

	for _, name := range list.Statistics {
		fmt.Println(name)
	}
	return nil
}
