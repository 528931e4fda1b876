package model

import (
	"errors"
	"fmt"
	"io"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"

	_ "embed"
)

// Enum helpers.
const (
	ModeDiscover = "discover"
	ModeStatic   = "static"

	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"
)

const (
	DefaultInterval       = 500 * time.Millisecond
	DefaultTimeout        = 30 * time.Second
	DefaultAttemptTimeout = 2 * time.Second
	DefaultSettle         = 500 * time.Millisecond

	DefaultWindowWidth  = 1200
	DefaultWindowHeight = 800
)

//go:embed config.cue
var cueSource []byte

var (
	cueCtx *cue.Context
	schema cue.Value
)

func init() {
	if len(cueSource) == 0 {
		panic("variable cueSource is empty")
	}
	cueCtx = cuecontext.New()
	compiled := cueCtx.CompileBytes(cueSource)
	if compiled.Err() != nil {
		panic(compiled.Err())
	}

	if err := compiled.Validate(); err != nil {
		panic(err)
	}

	schema = compiled.LookupPath(cue.ParsePath("#Config"))
	if schema.Err() != nil {
		panic(schema.Err())
	}
	if err := schema.Validate(); err != nil {
		panic(err)
	}
}

type Config struct {
	Version int      `json:"version" yaml:"version"` // fixed 0 for now
	Mode    string   `json:"mode" yaml:"mode"`       // "discover" | "static"
	Port    int      `json:"port,omitempty" yaml:"port,omitempty"`
	Backend *Backend `json:"backend,omitempty" yaml:"backend,omitempty"`
	Data    *Data    `json:"data,omitempty" yaml:"data,omitempty"`
	Probe   *Probe   `json:"probe,omitempty" yaml:"probe,omitempty"`
	Window  *Window  `json:"window,omitempty" yaml:"window,omitempty"`
	Metrics *Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Log     *string  `json:"log,omitempty" yaml:"log,omitempty"` // "stderr"|"stdout"|"discard"|path
	Verbose bool     `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// Backend locates the bundled server. Empty Path means <resources>/bin/todo_err.
type Backend struct {
	Path Path              `json:"path,omitempty" yaml:"path,omitempty"`
	Args []string          `json:"args,omitempty" yaml:"args,omitempty"` // nil => mode default
	Env  map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

type Data struct {
	Dir      Path   `json:"dir,omitempty" yaml:"dir,omitempty"` // empty => xdg data home
	Database string `json:"database,omitempty" yaml:"database,omitempty"`
}

type Probe struct {
	Interval       string `json:"interval,omitempty" yaml:"interval,omitempty"`
	Timeout        string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	AttemptTimeout string `json:"attempt_timeout,omitempty" yaml:"attempt_timeout,omitempty"`
	Settle         string `json:"settle,omitempty" yaml:"settle,omitempty"`
	AbortOnExit    bool   `json:"abort_on_exit,omitempty" yaml:"abort_on_exit,omitempty"`
}

type Window struct {
	Width   int  `json:"width,omitempty" yaml:"width,omitempty"`
	Height  int  `json:"height,omitempty" yaml:"height,omitempty"`
	Browser bool `json:"browser,omitempty" yaml:"browser,omitempty"`
}

type Metrics struct {
	Addr LoopbackAddr `json:"addr,omitempty" yaml:"addr,omitempty"`
}

// Timing holds the parsed probe durations.
type Timing struct {
	Interval       time.Duration
	Timeout        time.Duration
	AttemptTimeout time.Duration
	Settle         time.Duration
	AbortOnExit    bool
}

// DefaultConfig is written to disk when no config file exists.
func DefaultConfig() Config {
	return Config{
		Version: 0,
		Mode:    ModeDiscover,
		Probe: &Probe{
			Interval:       DefaultInterval.String(),
			Timeout:        DefaultTimeout.String(),
			AttemptTimeout: DefaultAttemptTimeout.String(),
			Settle:         DefaultSettle.String(),
		},
		Window: &Window{
			Width:  DefaultWindowWidth,
			Height: DefaultWindowHeight,
		},
	}
}

// LoadConfig validates YAML from r against CUE schema and decodes to Config.
func LoadConfig(r io.Reader) (Config, error) {
	yamlFile, err := yaml.Extract("todoerr.yaml", r)
	if err != nil {
		return Config{}, err
	}
	yamlValue := cueCtx.BuildFile(yamlFile)

	unified := schema.Unify(yamlValue)
	if err := unified.Validate(
		cue.All(),          // all constraints
		cue.Concrete(true), // no incomplete values
	); err != nil {
		return Config{}, err
	}

	var out Config
	if err := unified.Decode(&out); err != nil {
		return Config{}, err
	}

	if err := out.Validate(); err != nil {
		return Config{}, err
	}
	return out, nil
}

// Validate checks the rules the schema does not express.
// metrics.addr is checked while decoding.
func (c Config) Validate() error {
	var errs []error
	if c.Mode == ModeStatic && c.Port == 0 {
		errs = append(errs, errors.New("port: required in static mode"))
	}
	if _, err := c.Timing(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Timing parses the probe section, falling back to defaults for unset values.
func (c Config) Timing() (Timing, error) {
	t := Timing{
		Interval:       DefaultInterval,
		Timeout:        DefaultTimeout,
		AttemptTimeout: DefaultAttemptTimeout,
		Settle:         DefaultSettle,
	}
	if c.Probe == nil {
		return t, nil
	}
	t.AbortOnExit = c.Probe.AbortOnExit

	for _, f := range []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"probe.interval", c.Probe.Interval, &t.Interval},
		{"probe.timeout", c.Probe.Timeout, &t.Timeout},
		{"probe.attempt_timeout", c.Probe.AttemptTimeout, &t.AttemptTimeout},
		{"probe.settle", c.Probe.Settle, &t.Settle},
	} {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return Timing{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if d <= 0 && f.dst != &t.Settle {
			return Timing{}, fmt.Errorf("%s: must be positive, got %s", f.name, f.raw)
		}
		*f.dst = d
	}
	return t, nil
}

// WindowSize returns the configured window size or the defaults.
func (c Config) WindowSize() (width, height int) {
	width, height = DefaultWindowWidth, DefaultWindowHeight
	if c.Window == nil {
		return width, height
	}
	if c.Window.Width > 0 {
		width = c.Window.Width
	}
	if c.Window.Height > 0 {
		height = c.Window.Height
	}
	return width, height
}
