// Package config loads the YAML description of a replay: window, trigger, driver
// behaviour, state backend, sink and the scripted events.
package config

import (
	"io"
	"strings"
	"time"

	"github.com/RuiFG/streaming/log"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Application struct {
	Log             Log           `mapstructure:"log"`
	Window          Window        `mapstructure:"window"`
	Trigger         *Trigger      `mapstructure:"trigger"`
	AllowedLateness time.Duration `mapstructure:"allowed_lateness"`
	Accumulation    string        `mapstructure:"accumulation"`
	OnTime          string        `mapstructure:"on_time"`
	Closing         string        `mapstructure:"closing"`
	Combine         string        `mapstructure:"combine"`
	Shards          int           `mapstructure:"shards"`
	Store           Store         `mapstructure:"store"`
	Sink            Sink          `mapstructure:"sink"`
	Script          []Step        `mapstructure:"script"`
}

type Log struct {
	Level   string `mapstructure:"level"`
	Encoder string `mapstructure:"encoder"`
}

type Window struct {
	Kind   string        `mapstructure:"kind"`
	Size   time.Duration `mapstructure:"size"`
	Period time.Duration `mapstructure:"period"`
	Offset time.Duration `mapstructure:"offset"`
	Gap    time.Duration `mapstructure:"gap"`
}

// Trigger is one node of the trigger tree; composite kinds nest their children
// under triggers, early and late.
type Trigger struct {
	Kind     string        `mapstructure:"kind"`
	Count    int64         `mapstructure:"count"`
	Delay    time.Duration `mapstructure:"delay"`
	Triggers []*Trigger    `mapstructure:"triggers"`
	Early    *Trigger      `mapstructure:"early"`
	Late     *Trigger      `mapstructure:"late"`
}

type Store struct {
	Kind           string `mapstructure:"kind"`
	Dir            string `mapstructure:"dir"`
	Bucket         string `mapstructure:"bucket"`
	MergeThreshold int    `mapstructure:"merge_threshold"`
}

type Sink struct {
	Kind      string   `mapstructure:"kind"`
	Format    string   `mapstructure:"format"`
	Addresses []string `mapstructure:"addresses"`
	Topic     string   `mapstructure:"topic"`
}

type Step struct {
	Kind      string  `mapstructure:"kind"`
	Key       string  `mapstructure:"key"`
	Value     float64 `mapstructure:"value"`
	Timestamp int64   `mapstructure:"timestamp"`
	Time      int64   `mapstructure:"time"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoder", "console")
	v.SetDefault("window.kind", "global")
	v.SetDefault("accumulation", "discarding")
	v.SetDefault("on_time", "fire_always")
	v.SetDefault("closing", "fire_if_non_empty")
	v.SetDefault("combine", "sum")
	v.SetDefault("shards", 1)
	v.SetDefault("store.kind", "memory")
	v.SetDefault("sink.kind", "stdout")
	v.SetDefault("sink.format", "table")
}

// Load reads the YAML file at path. Values can be overridden by environment
// variables prefixed with REPLAY_, e.g. REPLAY_SHARDS.
func Load(path string) (*Application, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithMessagef(err, "read config %s", path)
	}
	return unmarshal(v)
}

// Read parses YAML from r.
func Read(r io.Reader) (*Application, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, errors.WithMessage(err, "read config")
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("replay")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)
	return v
}

func unmarshal(v *viper.Viper) (*Application, error) {
	application := &Application{}
	if err := v.Unmarshal(application); err != nil {
		return nil, errors.WithMessage(err, "decode config")
	}
	return application, nil
}

// Options returns the logger options described by the log section.
func (l Log) Options() (*log.Options, error) {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	options := log.DefaultOptions().WithLevel(level).WithNamed("replay")
	switch strings.ToLower(l.Encoder) {
	case "", "console":
		options.WithOutputEncoder(log.ConsoleOutputEncoder).WithLevelEncoder(log.CapitalLevelEncoder)
	case "json":
		options.WithOutputEncoder(log.JsonOutputEncoder)
	default:
		return nil, errors.Errorf("unknown log encoder %q", l.Encoder)
	}
	return options, nil
}
