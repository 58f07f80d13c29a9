// Package cmd implements the ondemand CLI commands.
//
// The root command dispatches to subcommands (config, wrap, simulate).
package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

// Output streams, replaced in tests.
var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// DefaultConfigFile is read when no --config flag is given.
const DefaultConfigFile = "ondemand.yaml"

// Command represents a CLI command.
type Command struct {
	Name  string
	Short string
	Long  string
	Usage string
	Run   func(args []string) error
}

var rootCmd = struct {
	Long  string
	Usage string
}{
	Long: `ondemand keeps server-rendered components inert until a trigger fires.

Use "ondemand <command> --help" for more information about a command.`,
	Usage: "ondemand <command> [flags]",
}

var commands = make(map[string]*Command)
var commandOrder []*Command

// RegisterCommand adds a command to the CLI.
func RegisterCommand(cmd *Command) {
	commands[cmd.Name] = cmd
	commandOrder = append(commandOrder, cmd)
}

// Execute runs the CLI with the process arguments.
func Execute() error {
	return run(os.Args[1:])
}

func run(args []string) error {
	if len(args) == 0 {
		printHelp()
		return nil
	}

	switch args[0] {
	case "-h", "--help", "help":
		printHelp()
		return nil
	case "-v", "--version", "version":
		fmt.Fprintf(stdout, "ondemand version %s (built %s)\n", Version, BuildTime)
		return nil
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", args[0])
		printHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}

	cmdArgs := args[1:]
	for _, arg := range cmdArgs {
		if arg == "-h" || arg == "--help" || arg == "help" {
			printCommandHelp(cmd)
			return nil
		}
	}
	return cmd.Run(cmdArgs)
}

func printHelp() {
	fmt.Fprintln(stdout, rootCmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", rootCmd.Usage)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Commands:")
	for _, sub := range commandOrder {
		fmt.Fprintf(stdout, "  %-14s %s\n", sub.Name, sub.Short)
	}
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Environment:")
	fmt.Fprintln(stdout, "  ONDEMAND_DISABLE_FALLBACK       Override disableFallback")
	fmt.Fprintln(stdout, "  ONDEMAND_WHEN_INPUT_PENDING     Override whenInputPending")
	fmt.Fprintln(stdout, "  ONDEMAND_INPUT_PENDING_FALLBACK Override inputPendingFallback")
	fmt.Fprintln(stdout, "  ONDEMAND_TRIGGERS               Comma-separated trigger tags")
}

func printCommandHelp(cmd *Command) {
	fmt.Fprintln(stdout, cmd.Long)
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Usage:")
	fmt.Fprintf(stdout, "  %s\n", cmd.Usage)
}

// splitFlag parses "--name value" and "--name=value" forms.
func splitFlag(args []string, i int, name string) (value string, next int, ok bool, err error) {
	arg := args[i]
	if arg == name {
		if i+1 >= len(args) {
			return "", i, true, fmt.Errorf("%s requires a value", name)
		}
		return args[i+1], i + 1, true, nil
	}
	if v, found := strings.CutPrefix(arg, name+"="); found {
		return v, i, true, nil
	}
	return "", i, false, nil
}
