package backend

import (
	"errors"
	"fmt"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/source/google"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	cfg := Config{
		Type:          backendType,
		DataDirectory: appConfig.DataDirectory,
		SeedUserID:    1,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		Sheets: google.Options{
			SpreadsheetID:   appConfig.GoogleSpreadsheetID,
			SheetName:       appConfig.GoogleSheetName,
			CredentialsFile: appConfig.GoogleServiceAccountFile,
			CredentialsJSON: appConfig.GoogleServiceAccountJSON,
			DefaultUserID:   1,
			CacheTTL:        appConfig.CacheTTL,
			CacheSize:       appConfig.CacheSize,
		},
		CleanupInterval: appConfig.CacheTTL,
		AMQP: amqp.Config{
			URL:          appConfig.AMQPURL,
			Exchange:     appConfig.AMQPExchange,
			ChangesQueue: appConfig.AMQPQueue,
			DigestQueue:  appConfig.AMQPDigestQueue,
		},
	}
	return cfg, cfg.Validate()
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
	case SheetsBackend:
		if c.Sheets.SpreadsheetID == "" {
			return errors.New("Google Spreadsheet ID is required for sheets backend")
		}
		if c.Sheets.CredentialsFile == "" && c.Sheets.CredentialsJSON == "" {
			return errors.New("Google service account credentials are required for sheets backend")
		}
	}
	return nil
}
