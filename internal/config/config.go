// Package config resolves the rig configuration: defaults, an
// optional YAML file, flag overrides and the interactive mode prompt,
// validated structurally against an embedded CUE schema before the
// engine is built. Configuration is resolved exactly once per run.
package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// GPIO describes the strobe input line.
type GPIO struct {
	Chip           string `json:"chip" yaml:"chip"`
	Line           int    `json:"line" yaml:"line"`
	DebounceMS     int    `json:"debounce_ms" yaml:"debounce_ms"`
	Strategy       string `json:"strategy" yaml:"strategy"` // "events" or "poll"
	PollIntervalMS int    `json:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// UART describes the transmit port.
type UART struct {
	Port  string `json:"port" yaml:"port"`
	Baud  int    `json:"baud" yaml:"baud"`
	Order string `json:"order" yaml:"order"` // "lsb" or "msb", wire byte order
}

// Counter describes the payload counter range.
type Counter struct {
	Width int `json:"width" yaml:"width"` // 8 (wrap at 255) or 32 (wrap at 0xFFFFFFFF)
}

// Trace enables the optional transmission log.
type Trace struct {
	Path string `json:"path" yaml:"path"` // empty disables tracing
}

// Config is the full rig configuration.
type Config struct {
	Mode    string  `json:"mode" yaml:"mode"`
	Counter Counter `json:"counter" yaml:"counter"`
	GPIO    GPIO    `json:"gpio" yaml:"gpio"`
	UART    UART    `json:"uart" yaml:"uart"`
	Trace   Trace   `json:"trace" yaml:"trace"`
}

// Default returns the rig's stock configuration. Mode is left empty
// and must be resolved by flag or prompt before Validate.
func Default() Config {
	return Config{
		Counter: Counter{Width: 8},
		GPIO: GPIO{
			Chip:           "gpiochip0",
			Line:           23,
			Strategy:       "events",
			PollIntervalMS: 1,
		},
		UART: UART{
			Port:  "/dev/serial0",
			Baud:  921600,
			Order: "lsb",
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path, or
// plain defaults when path is empty.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return c, nil
}

// Validate unifies the resolved configuration against the embedded
// CUE schema. JSON is valid CUE, so the config is marshalled and
// compiled into the same context as the schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup config schema: %w", err)
	}

	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	val := ctx.CompileBytes(data)
	if err := val.Err(); err != nil {
		return fmt.Errorf("compile config value: %w", err)
	}

	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
