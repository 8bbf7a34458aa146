package config

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// field binds one Config value to its command-line flag and the config
// file keys it may be spelled as. Nested file keys use dots.
type field struct {
	flag string
	keys []string
	set  func(cfg *Config, raw any) error
}

// fields lists every setting in the order it is applied. File values and
// flag values go through the same setter, so "-c 8" and "connections: 8"
// are parsed identically.
var fields = []field{
	{"target", []string{"target"}, bind(trimmed, func(c *Config, v string) { c.TargetURL = v })},
	{"header", []string{"headers"}, mergeHeaders},
	{"connections", []string{"connections"}, bind(cast.ToIntE, func(c *Config, v int) { c.Connections = v })},
	{"requests", []string{"requests"}, bind(cast.ToIntE, func(c *Config, v int) { c.Requests = v })},
	{"batch-size", spellings("batch_size"), bind(cast.ToIntE, func(c *Config, v int) { c.BatchSize = v })},
	{"timeout", []string{"timeout"}, bind(asDuration, func(c *Config, v time.Duration) { c.Timeout = v })},
	{"format", []string{"format"}, bind(lowered, func(c *Config, v string) {
		if v != "" {
			c.Format = OutputFormat(v)
		}
	})},
	{"output", spellings("output_file"), bind(trimmed, func(c *Config, v string) { c.OutputFile = v })},
	{"html-output", spellings("html_output"), bind(trimmed, func(c *Config, v string) { c.HTMLOutput = v })},
	{"dashboard", []string{"dashboard"}, bind(cast.ToBoolE, func(c *Config, v bool) { c.Dashboard = v })},
	{"no-progress", spellings("no_progress"), bind(cast.ToBoolE, func(c *Config, v bool) { c.NoProgress = v })},
	{"log-errors", spellings("log_errors"), bind(cast.ToBoolE, func(c *Config, v bool) { c.LogErrors = v })},
	{"log-level", spellings("log_level"), bind(lowered, func(c *Config, v string) {
		if v != "" {
			c.LogLevel = v
		}
	})},
	{"threshold", []string{"thresholds"}, bind(asList, func(c *Config, v []string) { c.Thresholds = v })},

	{"tracing-endpoint", []string{"tracing.endpoint"}, bind(trimmed, func(c *Config, v string) { c.Tracing.Endpoint = v })},
	{"tracing-protocol", []string{"tracing.protocol"}, bind(lowered, func(c *Config, v string) {
		if v != "" {
			c.Tracing.Protocol = v
		}
	})},
	{"tracing-service-name", spellings("tracing.service_name"), bind(trimmed, func(c *Config, v string) { c.Tracing.ServiceName = v })},
	{"tracing-sample-rate", spellings("tracing.sample_rate"), bind(cast.ToFloat64E, func(c *Config, v float64) { c.Tracing.SampleRate = v })},
	{"tracing-insecure", []string{"tracing.insecure"}, bind(cast.ToBoolE, func(c *Config, v bool) { c.Tracing.Insecure = v })},
	{"tracing-propagate", []string{"tracing.propagate"}, bind(cast.ToBoolE, func(c *Config, v bool) { c.Tracing.Propagate = &v })},
}

// bind converts the raw value and stores it in the field selected by store.
func bind[T any](convert func(any) (T, error), store func(*Config, T)) func(*Config, any) error {
	return func(cfg *Config, raw any) error {
		v, err := convert(raw)
		if err != nil {
			return err
		}
		store(cfg, v)
		return nil
	}
}

// spellings accepts snake_case, kebab-case and run-together forms of key.
// Viper lower-cases keys, so batchSize in a file arrives as batchsize.
func spellings(key string) []string {
	return []string{
		key,
		strings.ReplaceAll(key, "_", "-"),
		strings.ReplaceAll(key, "_", ""),
	}
}

func trimmed(raw any) (string, error) {
	s, err := cast.ToStringE(raw)
	return strings.TrimSpace(s), err
}

func lowered(raw any) (string, error) {
	s, err := trimmed(raw)
	return strings.ToLower(s), err
}

// asDuration reads Go duration strings ("1m30s"); bare numbers are seconds.
func asDuration(raw any) (time.Duration, error) {
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		return time.ParseDuration(strings.TrimSpace(v))
	default:
		secs, err := cast.ToFloat64E(v)
		if err != nil {
			return 0, err
		}
		return time.Duration(secs * float64(time.Second)), nil
	}
}

// asList keeps a lone string whole. Thresholds contain spaces, which
// cast.ToStringSliceE would split on.
func asList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	default:
		return cast.ToStringSliceE(v)
	}
}

// mergeHeaders adds headers on top of those already set. Flags arrive as
// key=value entries, config files as a mapping.
func mergeHeaders(cfg *Config, raw any) error {
	pairs, err := headerPairs(raw)
	if err != nil {
		return err
	}
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string, len(pairs))
	}
	for key, value := range pairs {
		cfg.Headers[http.CanonicalHeaderKey(key)] = value
	}
	return nil
}

func headerPairs(raw any) (map[string]string, error) {
	entries, ok := raw.([]string)
	if !ok {
		return cast.ToStringMapStringE(raw)
	}
	pairs := make(map[string]string, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			return nil, fmt.Errorf("header must be in key=value format: %s", entry)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, errors.New("header key cannot be empty")
		}
		pairs[key] = strings.TrimSpace(value)
	}
	return pairs, nil
}
