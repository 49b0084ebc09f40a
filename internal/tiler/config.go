package tiler

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfigFile reads a flat yaml document whose keys are the long flag names of a command, e.g.
//
//	dialect: postgis
//	connection: "host=localhost dbname=city"
//	geometricerrors: "500,0"
//
// Values are returned in their textual form, ready to be set on the flag set.
func LoadConfigFile(path string) (map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return ParseConfig(content)
}

func ParseConfig(content []byte) (map[string]string, error) {
	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(content, &nodes); err != nil {
		return nil, fmt.Errorf("%w: invalid config file: %v", ErrConfiguration, err)
	}

	values := make(map[string]string, len(nodes))
	for key, node := range nodes {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: config key %q must hold a scalar value", ErrConfiguration, key)
		}
		values[key] = node.Value
	}
	return values, nil
}
