// Package trcconf loads proxy policies from YAML.
//
// A config file looks like this.
//
//	base_package: example.com/app
//	policies:
//	  - name: trace
//	    pointcut: execution(* example.com/app..*.*(..))
//	    advice: log-trace
//	  - name: tx
//	    pointcut: execution(* *..*Service.*(..)) && !execution(* Get*(..))
//	    advice: transaction
//
// Advice is named, and resolved against a registry provided by the program.
package trcconf

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/peterbourgon/calltrc/trcmatch"
	"github.com/peterbourgon/calltrc/trcproxy"
	"gopkg.in/yaml.v2"
)

// ErrUnknownAdvice is returned for policies naming advice not in the registry.
var ErrUnknownAdvice = errors.New("unknown advice")

// Config is the top-level structure of a config file.
type Config struct {
	BasePackage string         `yaml:"base_package"`
	Policies    []PolicyConfig `yaml:"policies"`
}

// PolicyConfig describes a single policy.
type PolicyConfig struct {
	Name     string `yaml:"name"`
	Pointcut string `yaml:"pointcut"`
	Advice   string `yaml:"advice"`
	Message  string `yaml:"message,omitempty"` // optional, interpreted by the advice
}

// AdviceFactory constructs the advice for a policy.
type AdviceFactory func(pc PolicyConfig) (trcproxy.Advice, error)

// Registry maps advice names, as they appear in config files, to factories.
type Registry map[string]AdviceFactory

// Parse config from YAML data. Unknown fields are errors.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Load config from r, see Parse.
func Load(r io.Reader) (Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadFile loads config from the named file, see Parse.
func LoadFile(filename string) (Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	cfg, err := Load(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}

	return cfg, nil
}

// Validate checks every policy, and returns all problems at once, as a
// *multierror.Error. Pointcut syntax errors are *trcmatch.SyntaxError.
func (cfg Config) Validate() error {
	var (
		merr *multierror.Error
		seen = map[string]bool{}
	)
	for i, pc := range cfg.Policies {
		if err := pc.validate(); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("policy %d: %w", i+1, err))
		}
		if pc.Name != "" && seen[pc.Name] {
			merr = multierror.Append(merr, fmt.Errorf("policy %d: duplicate name %q", i+1, pc.Name))
		}
		seen[pc.Name] = true
	}
	return merr.ErrorOrNil()
}

func (pc PolicyConfig) validate() error {
	var merr *multierror.Error
	if pc.Name == "" {
		merr = multierror.Append(merr, fmt.Errorf("name is required"))
	}
	if pc.Advice == "" {
		merr = multierror.Append(merr, fmt.Errorf("advice is required"))
	}
	if _, err := trcmatch.Parse(pc.Pointcut); err != nil {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// Build validates the config, and constructs the policies it describes, in
// order, with advice from reg.
func (cfg Config) Build(reg Registry) ([]trcproxy.Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		merr     *multierror.Error
		policies = make([]trcproxy.Policy, 0, len(cfg.Policies))
	)
	for _, pc := range cfg.Policies {
		factory, ok := reg[pc.Advice]
		if !ok {
			merr = multierror.Append(merr, fmt.Errorf("policy %s: %q: %w", pc.Name, pc.Advice, ErrUnknownAdvice))
			continue
		}

		advice, err := factory(pc)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("policy %s: %w", pc.Name, err))
			continue
		}

		policy, err := trcproxy.NewPolicy(pc.Name, pc.Pointcut, advice)
		if err != nil {
			merr = multierror.Append(merr, err)
			continue
		}

		policies = append(policies, policy)
	}

	if err := merr.ErrorOrNil(); err != nil {
		return nil, err
	}

	return policies, nil
}

// Wrapper builds the policies, and returns a wrapper applying them to targets
// in the configured base package.
func (cfg Config) Wrapper(reg Registry, options ...trcproxy.WrapperOption) (*trcproxy.Wrapper, error) {
	if cfg.BasePackage == "" {
		return nil, fmt.Errorf("base_package is required")
	}

	policies, err := cfg.Build(reg)
	if err != nil {
		return nil, err
	}

	return trcproxy.NewWrapper(cfg.BasePackage, policies, options...), nil
}
