package gamemath

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type tablesFile struct {
	Risks map[string]Table `yaml:"risks"`
}

// LoadTables reads band overrides from a YAML file. Risks missing from the
// file keep their default tables. An empty path returns the defaults.
//
//	risks:
//	  high:
//	    - {until: 0.6, min: 0, max: 0}
//	    - {until: 1, min: 2, max: 12}
func LoadTables(path string) (Tables, error) {
	tables := DefaultTables()
	if path == "" {
		return tables, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read risk tables: %w", err)
	}
	var f tablesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse risk tables %s: %w", path, err)
	}
	for name, t := range f.Risks {
		risk := Risk(name)
		if risk != RiskLow && risk != RiskMedium && risk != RiskHigh {
			return nil, fmt.Errorf("risk tables %s: unknown risk %q", path, name)
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("risk tables %s: %s: %w", path, name, err)
		}
		tables[risk] = t
	}
	return tables, nil
}
