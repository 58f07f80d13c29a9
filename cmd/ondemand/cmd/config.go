package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/go-drift/ondemand/pkg/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "config",
		Short: "Show the resolved configuration",
		Long: `Load the configuration file, apply ONDEMAND_* environment overrides and
print the result.

A missing file is not an error; the defaults are printed instead.`,
		Usage: "ondemand config [--config FILE]",
		Run:   runConfig,
	})
}

func runConfig(args []string) error {
	path := DefaultConfigFile
	for i := 0; i < len(args); i++ {
		v, next, ok, err := splitFlag(args, i, "--config")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("unexpected argument %q", args[i])
		}
		path, i = v, next
	}

	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = stdout.Write(out)
	return err
}
