package config

type Config interface {
	EnvConfig
	APIConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataDir() string
	GetLogLevel() string
	GetEnv() string
}

type APIConfig interface {
	GetBaseURL() string
	GetMeasurementLimit() int
}

type mainConfig struct {
	EnvVars
	API
}

func New() Config {
	return mainConfig{}
}
