// internal/util/util.go
package util

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/erilali/roomrelay/internal/logger"
)

// LoadLoggerConfig loads the logger configuration from a JSON file. A missing
// file is not an error: the defaults are returned.
func LoadLoggerConfig(filePath string) (logger.LogConfig, error) {
	config := logger.DefaultLogConfig()
	if filePath == "" {
		return config, nil
	}
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, fmt.Errorf("open logger config %s: %w", filePath, err)
	}
	defer file.Close()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("decode logger config %s: %w", filePath, err)
	}
	return config, nil
}
