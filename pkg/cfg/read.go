package cfg

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

func readConfigFromFile(cfg *config, filePath string) error {
	if filePath == "" {
		return nil
	}

	bytes, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("can not read config file %s: %w", filePath, err)
	}

	settings := make(map[string]any)
	if err = yaml.Unmarshal(bytes, &settings); err != nil {
		return fmt.Errorf("can not unmarshal config file %s: %w", filePath, err)
	}

	cfg.settings = mergeMaps(cfg.settings, settings)

	return nil
}
