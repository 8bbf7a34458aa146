package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ErrHelpRequested is returned when usage was printed instead of loading a
// configuration: on --help, or when no target and no config file are given.
var ErrHelpRequested = errors.New("help requested")

// Loader builds a Config from command-line arguments and an optional
// configuration file.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

// Load parses args. Precedence is defaults, then the --config file, then
// explicitly set flags. The single positional argument is the target unless
// --target is given.
func (Loader) Load(args []string) (*Config, error) {
	var cfg *Config
	cmd := newCommand(func(cmd *cobra.Command, positional []string) error {
		fs := cmd.Flags()
		if fs.NFlag() == 0 && len(positional) == 0 {
			_ = cmd.Help()
			return ErrHelpRequested
		}
		var err error
		cfg, err = build(fs, positional)
		return err
	})
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	if err := cmd.Execute(); err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrHelpRequested
	}
	return cfg, nil
}

func build(fs *pflag.FlagSet, positional []string) (*Config, error) {
	configPath, err := fs.GetString("config")
	if err != nil {
		return nil, err
	}
	cfg := defaultConfig()
	cfg.ConfigFile = configPath

	if configPath != "" {
		v := viper.New()
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if err := applyFile(cfg, v); err != nil {
			return nil, err
		}
	}
	if err := applyFlags(cfg, fs); err != nil {
		return nil, err
	}

	if !fs.Changed("target") && len(positional) == 1 {
		cfg.TargetURL = strings.TrimSpace(positional[0])
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Headers:     map[string]string{},
		Connections: DefaultConnections,
		Requests:    DefaultRequests,
		BatchSize:   DefaultBatchSize,
		Timeout:     DefaultTimeout,
		Format:      FormatTable,
		LogLevel:    DefaultLogLevel,
		Tracing:     TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// applyFile copies every field present in the config file. The first
// spelling of a key that is set wins.
func applyFile(cfg *Config, v *viper.Viper) error {
	for _, f := range fields {
		for _, key := range f.keys {
			if !v.IsSet(key) {
				continue
			}
			if err := f.set(cfg, v.Get(key)); err != nil {
				return fmt.Errorf("%s: %w", f.keys[0], err)
			}
			break
		}
	}
	return nil
}

// applyFlags copies every flag that was set on the command line.
func applyFlags(cfg *Config, fs *pflag.FlagSet) error {
	for _, f := range fields {
		flag := fs.Lookup(f.flag)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := f.set(cfg, flagValue(flag)); err != nil {
			return fmt.Errorf("--%s: %w", f.flag, err)
		}
	}
	return nil
}

// flagValue hands list flags over as []string and everything else in its
// textual form.
func flagValue(flag *pflag.Flag) any {
	if list, ok := flag.Value.(pflag.SliceValue); ok {
		return list.GetSlice()
	}
	return flag.Value.String()
}
