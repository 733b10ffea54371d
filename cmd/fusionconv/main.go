// Command fusionconv checks and converts structured-data documents between
// the wire formats the codec speaks: JSON, CBOR and YAML.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tucher/jsonfusion"
)

var (
	flagFrom   string
	flagTo     string
	flagPretty bool
	flagStrict bool
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	root := &cobra.Command{
		Use:           "fusionconv",
		Short:         "Check and convert JSON, CBOR and YAML documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	check := &cobra.Command{
		Use:   "check [file]",
		Short: "Verify a document is well formed, with located diagnostics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCheck,
	}
	check.Flags().StringVarP(&flagFrom, "format", "f", "json", "input format: json, cbor or yaml")

	convert := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a document between wire formats",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runConvert,
	}
	convert.Flags().StringVarP(&flagFrom, "from", "f", "json", "input format: json, cbor or yaml")
	convert.Flags().StringVarP(&flagTo, "to", "t", "json", "output format: json, cbor or yaml")
	convert.Flags().BoolVar(&flagPretty, "pretty", false, "pretty-print JSON output")
	convert.Flags().BoolVar(&flagStrict, "strict", false, "reject unknown record fields")

	root.AddCommand(check, convert)

	if err := root.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// readInput loads the positional file argument or stdin.
func readInput(args []string) ([]byte, error) {
	if len(args) == 1 && args[0] != "-" {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

// newReader constructs the reader for the selected input format.
func newReader(format string, data []byte) (jsonfusion.Reader, error) {
	switch format {
	case "json":
		return jsonfusion.NewJSONReader(data), nil
	case "cbor":
		return jsonfusion.NewCBORReader(data), nil
	case "yaml":
		return jsonfusion.NewYAMLReader(data)
	}
	return nil, fmt.Errorf("unknown format %q", format)
}

func runCheck(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	r, err := newReader(flagFrom, data)
	if err != nil {
		return err
	}

	var doc any
	res := jsonfusion.ParseWithReader(r, &doc)
	if !res.OK() {
		fmt.Fprintln(os.Stderr, jsonfusion.ParseResultToString(res, data))
		return fmt.Errorf("document is not well formed")
	}
	slog.Info("document is well formed", "format", flagFrom, "bytes", len(data))
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	data, err := readInput(args)
	if err != nil {
		return err
	}
	r, err := newReader(flagFrom, data)
	if err != nil {
		return err
	}

	compiler := jsonfusion.NewCompiler().SetStrictFields(flagStrict)

	var doc any
	if res := compiler.ParseWithReader(r, &doc); !res.OK() {
		fmt.Fprintln(os.Stderr, jsonfusion.ParseResultToString(res, data))
		return fmt.Errorf("parse failed")
	}

	var out []byte
	switch flagTo {
	case "json":
		w := jsonfusion.NewJSONWriter()
		if flagPretty {
			w.SetPrettyPrint(2)
		}
		if res := compiler.SerializeWithWriter(w, doc); !res.OK() {
			return res.Err()
		}
		out = w.Bytes()
	case "cbor":
		w := jsonfusion.NewCBORWriter()
		if res := compiler.SerializeWithWriter(w, doc); !res.OK() {
			return res.Err()
		}
		out = w.Bytes()
	case "yaml":
		w := jsonfusion.NewYAMLWriter()
		if res := compiler.SerializeWithWriter(w, doc); !res.OK() {
			return res.Err()
		}
		out = w.Bytes()
	default:
		return fmt.Errorf("unknown format %q", flagTo)
	}

	_, err = os.Stdout.Write(out)
	return err
}
