// main.go
// Application entry point: loads configuration, initializes the logger and
// starts the server.
package main

import (
	"fmt"
	"os"

	"github.com/erilali/roomrelay/internal/api"
	"github.com/erilali/roomrelay/internal/config"
	"github.com/erilali/roomrelay/internal/logger"
	"github.com/erilali/roomrelay/internal/util"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logConfig, err := util.LoadLoggerConfig(cfg.LogConfigPath)
	if err != nil {
		fmt.Printf("Error loading logger config: %v, using defaults\n", err)
		logConfig = logger.DefaultLogConfig()
	}
	if cfg.LogLevel != "" {
		logConfig.Level = cfg.LogLevel
	}

	logger.InitLogger(logConfig)
	serverLogger := logger.NewLogger("server")
	serverLogger.WithFields(map[string]interface{}{
		"level":       logConfig.Level,
		"log_to_file": logConfig.LogToFile,
		"log_to_json": logConfig.LogToJSON,
		"file_path":   logConfig.FilePath,
		"port":        cfg.Port,
	}).Info("Logger initialized with configuration")

	if err := api.StartServer(cfg, serverLogger); err != nil {
		serverLogger.Fatalf("Server error: %v", err)
	}
}
