package config

import (
	"path/filepath"
	"testing"
)

func TestReadConfig(t *testing.T) {
	var (
		err         error
		projectRoot string
	)

	// Get the project root by going up from internal/config
	projectRoot, err = filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	var cfg Config

	cfg, err = ReadConfig(configPath)
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	// Test basic config fields
	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	// Test DB config
	if cfg.DB.GormEngine == "" {
		t.Error("DB.GormEngine should not be empty")
	}

	// AD settings must round-trip from the toml AD table
	if cfg.AD.Domain == "" {
		t.Error("AD.Domain should not be empty")
	}

	if cfg.AD.BaseDN == "" {
		t.Error("AD.BaseDN should not be empty")
	}

	// Seed mappings are optional but present in the shipped example config
	if len(cfg.Delegation.AdminMappings) == 0 {
		t.Error("Delegation.AdminMappings should not be empty in the example config")
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
			},
			wantErr: false,
		},
		{
			name: "zero port",
			config: Config{
				Webserver: Webserver{Port: 0, URL: "http://localhost:8080"},
			},
			wantErr: true,
		},
		{
			name: "empty url",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: ""},
			},
			wantErr: true,
		},
		{
			name: "missing directory settings still validates",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				AD:        AD{},
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
