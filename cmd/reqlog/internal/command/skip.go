package command

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/sanitize"
	"github.com/urfave/cli/v2"
)

// SkipCommand returns the skip subcommand, which reports whether the request
// logger would skip each path.
func SkipCommand() *cli.Command {
	return &cli.Command{
		Name:      "skip",
		Usage:     "Show whether paths are skipped by the request logger",
		ArgsUsage: "path [path...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "prefix",
				Aliases: []string{"p"},
				Usage:   "extra skip prefix",
			},
		},
		Action: skip,
	}
}

func skip(c *cli.Context) error {
	if c.NArg() == 0 {
		return errors.New("at least one path is required")
	}

	prefixes := append([]string{}, constants.SkipPaths...)
	filter := sanitize.NewPathFilter(append(prefixes, c.StringSlice("prefix")...)...)

	for _, path := range c.Args().Slice() {
		verdict := "log"
		if filter.ShouldSkip(path) {
			verdict = "skip"
		}
		fmt.Fprintf(c.App.Writer, "%s\t%s\n", verdict, path)
	}
	return nil
}
