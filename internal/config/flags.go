package config

import (
	"flag"
	"fmt"
	"os"
)

// flagValue records a raw flag string so it can be applied after the file
// and environment layers.
type flagValue struct {
	value  string
	isBool bool
}

func (f *flagValue) String() string     { return f.value }
func (f *flagValue) Set(s string) error { f.value = s; return nil }
func (f *flagValue) IsBoolFlag() bool   { return f.isBool }

// Flags binds configuration overrides to a flag set.
type Flags struct {
	fs     *flag.FlagSet
	path   *string
	values map[string]*flagValue
}

// RegisterFlags adds -config and one flag per setting to fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{
		fs:     fs,
		path:   fs.String("config", os.Getenv("TJL_CONFIG"), "YAML config file"),
		values: make(map[string]*flagValue, len(options)),
	}
	for _, o := range options {
		v := &flagValue{isBool: o.isBool}
		f.values[o.flag] = v
		fs.Var(v, o.flag, o.usage)
	}
	return f
}

// Load builds the configuration after fs has been parsed. Only flags given
// on the command line override the lower layers.
func (f *Flags) Load() (*Config, error) {
	cfg := Default()
	if *f.path != "" {
		if err := cfg.loadFile(*f.path); err != nil {
			return nil, err
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := f.apply(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config) error {
	byFlag := make(map[string]option, len(options))
	for _, o := range options {
		byFlag[o.flag] = o
	}

	var err error
	f.fs.Visit(func(fl *flag.Flag) {
		o, ok := byFlag[fl.Name]
		if !ok || err != nil {
			return
		}
		if setErr := o.set(cfg, f.values[fl.Name].value); setErr != nil {
			err = fmt.Errorf("invalid -%s: %w", fl.Name, setErr)
		}
	})
	return err
}
