package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"

	goshape "github.com/goshape/goshape"
	"github.com/goshape/goshape/codec"
	"github.com/goshape/goshape/schemafile"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "apply":
		applyCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "goshape CLI\n\nUsage:\n  goshape apply -schema decl.yaml [-name N] -in data.json [-many] [-indent]\n\nNotes:\n  - data.json is decoded into maps; nested paths navigate nested objects.\n  - \"-\" for -in reads stdin.")
}

func applyCmd(args []string) {
	fs := flag.NewFlagSet("apply", flag.ExitOnError)
	var schemaPath, name, in string
	var many, indent bool
	fs.StringVar(&schemaPath, "schema", "", "YAML schema declaration file")
	fs.StringVar(&name, "name", "", "schema name to apply (default: last declared)")
	fs.StringVar(&in, "in", "-", "JSON input file, or - for stdin")
	fs.BoolVar(&many, "many", false, "treat the input as a sequence of objects")
	fs.BoolVar(&indent, "indent", false, "indent the JSON output")
	_ = fs.Parse(args)
	if schemaPath == "" {
		usage()
		os.Exit(2)
	}

	reg := schemafile.NewRegistry()
	schemas, err := schemafile.LoadFile(schemaPath, reg)
	if err != nil {
		fail(err)
	}
	if len(schemas) == 0 {
		fail(fmt.Errorf("no schema documents in %s", schemaPath))
	}
	schema := schemas[len(schemas)-1]
	if name != "" {
		s, ok := reg.Schema(name)
		if !ok {
			fail(fmt.Errorf("schema %q not declared in %s", name, schemaPath))
		}
		schema = s
	}

	input, err := readInput(in)
	if err != nil {
		fail(err)
	}
	var payload any
	if err := json.Unmarshal(input, &payload); err != nil {
		fail(err)
	}

	// JSON input decodes into maps, which the JSON encoder would pass through
	// untouched; materialize through the schema first, then encode.
	var opts []goshape.InstanceOption
	if many {
		opts = append(opts, goshape.Many())
	}
	inst, err := schema.Instance(payload, opts...)
	if err != nil {
		fail(err)
	}
	text, err := inst.Encode(codec.JSON())
	if err != nil {
		fail(err)
	}
	if indent {
		var buf bytes.Buffer
		if err := json.Indent(&buf, text, "", "  "); err != nil {
			fail(err)
		}
		text = buf.Bytes()
	}
	os.Stdout.Write(text)
	fmt.Println()
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "goshape:", err)
	os.Exit(1)
}
