package cmd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/ondemand/pkg/config"
	"github.com/go-drift/ondemand/pkg/dom"
	"github.com/go-drift/ondemand/pkg/engine"
	"github.com/go-drift/ondemand/pkg/host"
	"github.com/go-drift/ondemand/pkg/ondemand"
)

func init() {
	RegisterCommand(&Command{
		Name:  "simulate",
		Short: "Run the configured triggers against a live loop",
		Long: `Mount a statically rendered component on a real engine loop using the
resolved configuration and report when it activates.

Flags:
  --config FILE        Configuration file (default ondemand.yaml)
  --for DURATION       How long to wait for activation (default 5s)
  --click-after D      Dispatch a click on the component after D
  --visible-after D    Report the component as visible after D
  --verbose            Log scheduler and engine events to stderr`,
		Usage: "ondemand simulate [flags]",
		Run:   runSimulate,
	})
}

type simulateFlags struct {
	config       string
	wait         time.Duration
	clickAfter   time.Duration
	visibleAfter time.Duration
	verbose      bool
}

func parseSimulateFlags(args []string) (simulateFlags, error) {
	f := simulateFlags{config: DefaultConfigFile, wait: 5 * time.Second}
	durations := map[string]*time.Duration{
		"--for":           &f.wait,
		"--click-after":   &f.clickAfter,
		"--visible-after": &f.visibleAfter,
	}

	for i := 0; i < len(args); i++ {
		if args[i] == "--verbose" {
			f.verbose = true
			continue
		}
		if v, next, ok, err := splitFlag(args, i, "--config"); err != nil {
			return f, err
		} else if ok {
			f.config, i = v, next
			continue
		}
		matched := false
		for name, dst := range durations {
			v, next, ok, err := splitFlag(args, i, name)
			if err != nil {
				return f, err
			}
			if !ok {
				continue
			}
			d, err := time.ParseDuration(v)
			if err != nil {
				return f, fmt.Errorf("%s: %w", name, err)
			}
			*dst, i, matched = d, next, true
			break
		}
		if !matched {
			return f, fmt.Errorf("unexpected argument %q", args[i])
		}
	}
	if f.wait <= 0 {
		return f, fmt.Errorf("--for must be positive")
	}
	return f, nil
}

func runSimulate(args []string) error {
	flags, err := parseSimulateFlags(args)
	if err != nil {
		return err
	}
	cfg, err := config.Load(flags.config)
	if err != nil {
		return err
	}

	level := zerolog.InfoLevel
	if flags.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(level).With().Timestamp().Str("component", "simulate").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), flags.wait)
	defer cancel()

	vp := &viewport{}
	eng := engine.New(engine.Config{Logger: &logger, Intersection: vp})
	vp.eng = eng

	activated := make(chan struct{})
	var once sync.Once
	opts := cfg.Options()
	opts.Logger = &logger
	opts.OnActivate = func() { once.Do(func() { close(activated) }) }

	comp := &ondemand.Component{
		Name:    "simulate",
		Options: opts,
		Render: func(parent *dom.Node) error {
			return parent.SetInnerHTML(`<div class="label">content</div>`)
		},
	}
	root, err := comp.StaticNode()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })

	mounted := make(chan error, 1)
	var inst *ondemand.Instance
	start := time.Now()
	eng.Dispatch(func() {
		var err error
		inst, err = comp.Mount(gctx, eng.Host(), root, false)
		if err == nil && inst.Hydrated() {
			once.Do(func() { close(activated) })
		}
		mounted <- err
	})
	select {
	case err := <-mounted:
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
	case <-gctx.Done():
		_ = g.Wait()
		fmt.Fprintf(stdout, "still pending after %s\n", flags.wait)
		return nil
	}

	if flags.clickAfter > 0 {
		eng.AfterFunc(flags.clickAfter, func() { root.Dispatch("click") })
	}
	if flags.visibleAfter > 0 {
		eng.AfterFunc(flags.visibleAfter, vp.show)
	}

	select {
	case <-activated:
		fmt.Fprintf(stdout, "activated after %s\n", time.Since(start).Round(time.Millisecond))
	case <-ctx.Done():
		fmt.Fprintf(stdout, "still pending after %s\n", flags.wait)
	}

	eng.Dispatch(inst.Unmount)
	cancel()
	if err := g.Wait(); err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return err
	}
	return nil
}

// viewport is an intersection host whose targets become visible when show
// is called. It runs on the engine loop.
type viewport struct {
	eng       *engine.Engine
	visible   bool
	observers []*viewportObserver
}

type viewportObserver struct {
	vp      *viewport
	cb      host.IntersectionCallback
	targets []host.Element
}

func (v *viewport) NewIntersectionObserver(cb host.IntersectionCallback, _ host.IntersectionOptions) host.IntersectionObserver {
	o := &viewportObserver{vp: v, cb: cb}
	v.observers = append(v.observers, o)
	return o
}

func (v *viewport) show() {
	v.visible = true
	for _, o := range v.observers {
		o.report()
	}
}

func (o *viewportObserver) Observe(target host.Element) {
	o.targets = append(o.targets, target)
	if o.vp.visible {
		o.report()
	}
}

func (o *viewportObserver) Disconnect() {
	o.targets = nil
}

func (o *viewportObserver) report() {
	if len(o.targets) == 0 {
		return
	}
	entries := make([]host.IntersectionEntry, 0, len(o.targets))
	for _, t := range o.targets {
		entries = append(entries, host.IntersectionEntry{Target: t, IsIntersecting: true, Ratio: 1})
	}
	o.cb(entries, o)
}
