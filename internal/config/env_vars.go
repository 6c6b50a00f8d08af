package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	appNameVar  = "APP_NAME"
	dataDirVar  = "HEARTBEAT_DATA_DIR"
	logLevelVar = "LOG_LEVEL"
	envVar      = "ENV"
)

func init() {
	godotenv.Load()
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Heartbeat Sense")
}

// GetDataDir returns the directory holding the client's persisted state.
// Defaults to ~/.heartbeat so the store survives across invocations.
func (EnvVars) GetDataDir() string {
	if dir := GetEnv(dataDirVar, ""); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".heartbeat"
	}
	return filepath.Join(home, ".heartbeat")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetEnv() string {
	return GetEnv(envVar, "DEV")
}

func GetEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return defaultValue
}
