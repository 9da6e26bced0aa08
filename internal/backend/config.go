package backend

import (
	"errors"
	"fmt"

	"moneygr/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	t := Type(appConfig.DataBackend)
	if !t.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:          t,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		InoutURI:      appConfig.InoutURI,
		InoutTimeout:  appConfig.InoutTimeout,
		DataDirectory: "data",
		DefaultUser:   appConfig.DefaultUser,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case RemoteBackend:
		if c.InoutURI == "" {
			return errors.New("inout URI is required for remote backend")
		}
	case MemoryBackend:
		// DataDirectory falls back to "data"
	}

	return nil
}

// Types returns all valid backend types
func Types() []Type {
	return []Type{MemoryBackend, SQLiteBackend, RemoteBackend}
}
