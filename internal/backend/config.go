package backend

import (
	"fmt"

	"bilancio/internal/config"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s (want one of %v)", appConfig.DataBackend, GetBackendTypeStrings())
	}

	cfg := Config{
		Type:             backendType,
		SQLiteDBPath:     appConfig.SQLiteDBPath,
		SeedFile:         appConfig.SeedFile,
		NotifyWindowDays: appConfig.NotifyWindowDays,
	}
	if appConfig.AMQPEnabled() {
		cfg.AMQPURL = appConfig.AMQPURL
		cfg.AMQPExchange = appConfig.AMQPExchange
	}
	if appConfig.SheetsEnabled() {
		cfg.GoogleSpreadsheetID = appConfig.GoogleSpreadsheetID
		cfg.GoogleSheetName = appConfig.GoogleSheetName
		cfg.GoogleShiftsSheetName = appConfig.GoogleShiftsSheetName
		cfg.GoogleServiceAccountFile = appConfig.GoogleServiceAccountFile
		cfg.GoogleServiceAccountJSON = appConfig.GoogleServiceAccountJSON
	}
	return cfg, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s (want one of %v)", c.Type, GetBackendTypeStrings())
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case MemoryBackend:
		// nothing to check
	}

	if c.AMQPURL != "" && c.AMQPExchange == "" {
		return fmt.Errorf("AMQP exchange is required when AMQP URL is set")
	}
	if c.GoogleSpreadsheetID != "" && c.GoogleSheetName == "" {
		return fmt.Errorf("Google Sheet name is required for the sheets export")
	}
	return nil
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	return []string{SQLiteBackend.String(), MemoryBackend.String()}
}
