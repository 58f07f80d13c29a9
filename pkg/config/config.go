// Package config loads activation options from an optional YAML file with
// environment overrides.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/ondemand/pkg/errors"
	"github.com/go-drift/ondemand/pkg/host"
	"github.com/go-drift/ondemand/pkg/hydration"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ONDEMAND_"

// Config is the file form of hydration.Options.
type Config struct {
	DisableFallback      bool      `yaml:"disableFallback"`
	WhenInputPending     bool      `yaml:"whenInputPending"`
	InputPendingFallback bool      `yaml:"inputPendingFallback"`
	Triggers             []Trigger `yaml:"triggers,omitempty"`
}

// Trigger is one entry of the triggers list. It decodes from a bare tag
// ("click", "idle") or a single-key map ("delay: 200ms", "visible: {...}",
// "event: scroll").
type Trigger struct {
	Kind    string
	Delay   time.Duration
	Visible *host.IntersectionOptions

	hasDelay bool
}

// Default returns the configuration matching hydration.DefaultOptions.
func Default() *Config {
	opts := hydration.DefaultOptions()
	return &Config{
		DisableFallback:      opts.DisableFallback,
		WhenInputPending:     opts.WhenInputPending,
		InputPendingFallback: !opts.AssumeInputIdle,
	}
}

// Load reads path if present and applies environment overrides. A missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if cfg, err = Parse(data); err != nil {
			return nil, err
		}
	case !stderrors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := ApplyEnv(cfg, nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, configError("config.Parse", err)
	}
	return cfg, nil
}

type envOverrides struct {
	DisableFallback      *bool    `env:"DISABLE_FALLBACK"`
	WhenInputPending     *bool    `env:"WHEN_INPUT_PENDING"`
	InputPendingFallback *bool    `env:"INPUT_PENDING_FALLBACK"`
	Triggers             []string `env:"TRIGGERS" envSeparator:","`
}

// ApplyEnv overrides cfg from ONDEMAND_* variables. environ replaces the
// process environment when non-nil. ONDEMAND_TRIGGERS replaces the trigger
// list with comma-separated bare tags.
func ApplyEnv(cfg *Config, environ map[string]string) error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return configError("config.ApplyEnv", err)
	}
	if o.DisableFallback != nil {
		cfg.DisableFallback = *o.DisableFallback
	}
	if o.WhenInputPending != nil {
		cfg.WhenInputPending = *o.WhenInputPending
	}
	if o.InputPendingFallback != nil {
		cfg.InputPendingFallback = *o.InputPendingFallback
	}
	if o.Triggers != nil {
		triggers := make([]Trigger, 0, len(o.Triggers))
		for _, tag := range o.Triggers {
			if strings.TrimSpace(tag) == "" {
				continue
			}
			var t Trigger
			if err := t.UnmarshalText([]byte(tag)); err != nil {
				return configError("config.ApplyEnv", err)
			}
			triggers = append(triggers, t)
		}
		cfg.Triggers = triggers
	}
	return nil
}

// Options converts the configuration into scheduler options.
func (c *Config) Options() hydration.Options {
	opts := hydration.DefaultOptions()
	opts.DisableFallback = c.DisableFallback
	opts.WhenInputPending = c.WhenInputPending
	opts.AssumeInputIdle = !c.InputPendingFallback
	for _, t := range c.Triggers {
		opts.Triggers = append(opts.Triggers, t.Spec())
	}
	return opts
}

// Spec returns the scheduler spec for t.
func (t Trigger) Spec() hydration.TriggerSpec {
	switch {
	case t.Kind == hydration.KindDelay && t.hasDelay:
		return hydration.Delay(t.Delay)
	case t.Kind == hydration.KindVisible && t.Visible != nil:
		opts := *t.Visible
		return hydration.VisibleWith(func() host.IntersectionOptions { return opts })
	case t.Kind == hydration.KindVisible:
		return hydration.Visible()
	case t.Kind == hydration.KindIdle:
		return hydration.Idle()
	default:
		spec, _ := hydration.ParseTrigger(t.Kind)
		return spec
	}
}

// UnmarshalText decodes a bare tag.
func (t *Trigger) UnmarshalText(text []byte) error {
	spec, err := hydration.ParseTrigger(string(text))
	if err != nil {
		return err
	}
	*t = Trigger{Kind: spec.Kind}
	return nil
}

// UnmarshalYAML decodes a bare tag or a single-key map.
func (t *Trigger) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return t.UnmarshalText([]byte(node.Value))
	case yaml.MappingNode:
		if len(node.Content) != 2 {
			return fmt.Errorf("line %d: trigger map must have exactly one key", node.Line)
		}
		key, val := node.Content[0].Value, node.Content[1]
		switch key {
		case hydration.KindDelay:
			d, err := decodeDelay(val)
			if err != nil {
				return fmt.Errorf("line %d: delay: %w", val.Line, err)
			}
			*t = Trigger{Kind: hydration.KindDelay, Delay: d, hasDelay: true}
		case hydration.KindVisible:
			var opts host.IntersectionOptions
			if err := val.Decode(&opts); err != nil {
				return fmt.Errorf("line %d: visible: %w", val.Line, err)
			}
			*t = Trigger{Kind: hydration.KindVisible, Visible: &opts}
		case "event":
			var name string
			if err := val.Decode(&name); err != nil {
				return err
			}
			if err := t.UnmarshalText([]byte(name)); err != nil {
				return fmt.Errorf("line %d: event: %w", val.Line, err)
			}
		default:
			return fmt.Errorf("line %d: unknown trigger option %q", node.Line, key)
		}
		return nil
	default:
		return fmt.Errorf("line %d: trigger must be a string or a map", node.Line)
	}
}

// decodeDelay accepts a duration string ("1.5s") or an integer number of
// milliseconds.
func decodeDelay(val *yaml.Node) (time.Duration, error) {
	if val.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("want a duration or milliseconds")
	}
	raw := strings.TrimSpace(val.Value)
	if val.ShortTag() == "!!int" {
		ms, err := strconv.ParseInt(raw, 0, 64)
		if err != nil {
			return 0, err
		}
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(raw)
}

// MarshalYAML writes t back in the shape UnmarshalYAML accepts.
func (t Trigger) MarshalYAML() (any, error) {
	switch {
	case t.Kind == hydration.KindDelay && t.hasDelay:
		return map[string]string{hydration.KindDelay: t.Delay.String()}, nil
	case t.Kind == hydration.KindVisible && t.Visible != nil:
		return map[string]host.IntersectionOptions{hydration.KindVisible: *t.Visible}, nil
	default:
		return t.Kind, nil
	}
}

func configError(op string, err error) error {
	return &errors.HydrationError{
		Op:        op,
		Kind:      errors.KindConfig,
		Err:       err,
		Timestamp: time.Now(),
	}
}
