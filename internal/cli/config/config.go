package config

import "os"

const (
	// ConfigPathEnv points the server configuration loader at a file.
	ConfigPathEnv = "MEDIAUP_CONFIG_PATH"
	// ServerAddrEnv overrides the default upload server address.
	ServerAddrEnv = "MEDIAUP_SERVER"

	defaultServerAddr = "localhost:50061"
)

// Config holds the command line's own settings, as opposed to the pipeline
// configuration loaded by the server and local commands.
type Config struct {
	ServerAddr string
	ConfigPath string
}

func NewConfig() *Config {
	addr := os.Getenv(ServerAddrEnv)
	if addr == "" {
		addr = defaultServerAddr
	}
	return &Config{
		ServerAddr: addr,
		ConfigPath: os.Getenv(ConfigPathEnv),
	}
}
