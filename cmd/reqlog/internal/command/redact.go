package command

import (
	"encoding/json"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/thalib/reqlog/cmd/reqlog/internal/constants"
	"github.com/thalib/reqlog/cmd/reqlog/internal/sanitize"
	"github.com/urfave/cli/v2"
)

// RedactCommand returns the redact subcommand. It reads one JSON document and
// writes it back with sensitive fields replaced.
func RedactCommand() *cli.Command {
	return &cli.Command{
		Name:      "redact",
		Usage:     "Redact sensitive fields from a JSON document",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "extra sensitive field (substring, case-insensitive)",
			},
			&cli.StringFlag{
				Name:  "marker",
				Usage: "replacement for redacted values",
				Value: constants.RedactedPlaceholder,
			},
			&cli.BoolFlag{
				Name:  "headers",
				Usage: "treat the input as a header object and redact authorization and cookie only",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "indent the output",
			},
		},
		Action: redact,
	}
}

func redact(c *cli.Context) error {
	in := c.App.Reader
	if path := c.Args().First(); path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrap(err, "open input")
		}
		defer f.Close()
		in = f
	}

	doc, err := decodeDocument(in)
	if err != nil {
		return err
	}

	fields := append([]string{}, constants.SensitiveFields...)
	s := sanitize.New(append(fields, c.StringSlice("field")...), c.String("marker"))

	var out any
	if c.Bool("headers") {
		headers, ok := doc.(map[string]any)
		if !ok {
			return errors.Newf("headers input must be a JSON object, got %s", sanitize.KindOf(doc))
		}
		out = s.Headers(headers)
	} else {
		out = s.Data(doc)
	}

	enc := json.NewEncoder(c.App.Writer)
	if c.Bool("pretty") {
		enc.SetIndent("", "  ")
	}
	return errors.Wrap(enc.Encode(out), "write output")
}

func decodeDocument(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "decode input")
	}
	return doc, nil
}
