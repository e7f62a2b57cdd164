package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects what happens after a successful whole-program check.
type Mode string

const (
	ModeCompiler    Mode = "compiler"
	ModeInterpreter Mode = "interpreter"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCompiler, ModeInterpreter:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("unknown mode %q (want %q or %q)", s, ModeCompiler, ModeInterpreter)
	}
}

func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	mode, err := ParseMode(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = mode
	return nil
}

// DefaultConfigFile is read when present and no -config flag is given.
const DefaultConfigFile = "whilec.yaml"

// Config holds the settings of one run.
type Config struct {
	Mode        Mode   `yaml:"mode"`
	LabelPrefix string `yaml:"label_prefix"`
	Verbose     bool   `yaml:"verbose"`
	// Output is where compiler mode writes code. Empty means stdout.
	Output string `yaml:"output"`
}

func DefaultConfig() Config {
	return Config{
		Mode:        ModeInterpreter,
		LabelPrefix: DefaultLabelPrefix,
	}
}

// ParseConfig reads YAML on top of the defaults.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads the config file at path. A missing file is only an error
// when required is set.
func LoadConfig(path string, required bool) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !required {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := ParseMode(string(c.Mode)); err != nil {
		return err
	}
	if c.LabelPrefix == "" {
		return errors.New("label_prefix must not be empty")
	}
	if !isIdentifier(c.LabelPrefix) {
		return fmt.Errorf("label_prefix %q is not an identifier", c.LabelPrefix)
	}
	return nil
}
