package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-drift/ondemand/pkg/dom"
	"github.com/go-drift/ondemand/pkg/ondemand"
)

func init() {
	RegisterCommand(&Command{
		Name:  "wrap",
		Short: "Wrap server markup for on-demand activation",
		Long: `Read an HTML fragment and write it inside the marked wrapper section
the client expects.

The fragment is read from FILE, or from stdin when FILE is omitted or "-".
Each --attr adds an attribute to the wrapper.`,
		Usage: "ondemand wrap [--attr NAME=VALUE]... [FILE]",
		Run:   runWrap,
	})
}

func runWrap(args []string) error {
	var attrs []dom.Attr
	var file string
	for i := 0; i < len(args); i++ {
		v, next, ok, err := splitFlag(args, i, "--attr")
		if err != nil {
			return err
		}
		if ok {
			name, value, found := strings.Cut(v, "=")
			if !found || name == "" {
				return fmt.Errorf("invalid --attr %q, want NAME=VALUE", v)
			}
			attrs = append(attrs, dom.Attr{Name: name, Value: value})
			i = next
			continue
		}
		if file != "" {
			return fmt.Errorf("unexpected argument %q", args[i])
		}
		file = args[i]
	}

	data, err := readInput(file)
	if err != nil {
		return err
	}

	comp := &ondemand.Component{
		Name: "wrap",
		Render: func(parent *dom.Node) error {
			nodes, err := dom.Parse(bytes.NewReader(data))
			if err != nil {
				return err
			}
			for _, n := range nodes {
				parent.AppendChild(n)
			}
			return nil
		},
		WrapperAttrs: attrs,
	}
	if err := comp.RenderStatic(stdout); err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout)
	return err
}

func readInput(file string) ([]byte, error) {
	if file == "" || file == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
