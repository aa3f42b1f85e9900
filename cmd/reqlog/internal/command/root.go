// Package command defines the reqlog command line: the demo server and two
// offline helpers that run the sanitizer and the path filter on their own.
package command

import (
	"github.com/thalib/reqlog/cmd/reqlog/internal/config"
	"github.com/urfave/cli/v2"
)

// App builds the reqlog application. Running it without a subcommand starts
// the server.
func App() *cli.App {
	return &cli.App{
		Name:    "reqlog",
		Usage:   "HTTP request logging with sensitive-field redaction",
		Version: config.Version,
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			RedactCommand(),
			SkipCommand(),
		},
		Action: serve,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "path to configuration file (default: /etc/reqlog.yaml)",
			EnvVars: []string{"REQLOG_CONFIG"},
		},
	}
}
