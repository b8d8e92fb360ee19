package rule

import (
	"fmt"
	"os"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"
)

// Parse unmarshals a YAML list of rules and compiles each of them in a fresh environment.
func Parse(content []byte, envProvider func() (*cel.Env, error)) ([]Rule, error) {
	rules := []Rule{}

	err := yaml.Unmarshal(content, &rules)
	if err != nil {
		return nil, err
	}

	if err := InitAll(rules, envProvider); err != nil {
		return nil, err
	}
	return rules, nil
}

// LoadFromFile reads and parses a rule list stored in file.
func LoadFromFile(file string, envProvider func() (*cel.Env, error)) ([]Rule, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Parse(content, envProvider)
}

// InitAll compiles rules in place.
func InitAll(rules []Rule, envProvider func() (*cel.Env, error)) error {
	for i := range rules {
		env, err := envProvider()
		if err != nil {
			return err
		}

		err = rules[i].Init(env)
		if err != nil {
			return fmt.Errorf("rule %d (%s): %w", i, rules[i].Name, err)
		}
	}
	return nil
}
