package config_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/modsync/pkg/cli/config"
	"github.com/m-mizutani/modsync/pkg/domain/types"
)

func TestLogger_Configure(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{name: "Valid level: debug", level: "debug"},
		{name: "Valid level: DEBUG (case insensitive)", level: "DEBUG"},
		{name: "Valid level: info", level: "info"},
		{name: "Valid level: Warn", level: "Warn"},
		{name: "Valid level: error", level: "error"},
		{name: "Invalid level: invalid", level: "invalid", wantErr: true},
		{name: "Invalid level: empty string", level: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Logger{Level: tt.level, Writer: &bytes.Buffer{}}

			logger, err := cfg.Configure()
			if tt.wantErr {
				gt.Error(t, err)
				gt.True(t, goerr.HasTag(err, types.ErrTagConfiguration))
				return
			}
			gt.NoError(t, err)
			gt.Value(t, logger).NotNil()
		})
	}
}

func TestLogger_Configure_LevelBehavior(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Logger{Level: "warn", JSON: true, Writer: &buf}

	logger, err := cfg.Configure()
	gt.NoError(t, err)

	logger.Info("hidden message")
	logger.Warn("visible message")

	gt.False(t, strings.Contains(buf.String(), "hidden message"))
	gt.True(t, strings.Contains(buf.String(), "visible message"))
}

func TestLogger_Configure_RedactsCredential(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Logger{Level: "info", JSON: true, Writer: &buf}

	logger, err := cfg.Configure()
	gt.NoError(t, err)

	logger.Info("client created", "api_key", types.Credential("very-secret-token"))

	gt.False(t, strings.Contains(buf.String(), "very-secret-token"))

	var entry map[string]any
	gt.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	gt.Equal(t, entry["msg"], "client created")
}

func TestLogger_Configure_Console(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Logger{Level: "debug", Writer: &buf}

	logger, err := cfg.Configure()
	gt.NoError(t, err)
	logger.Debug("console message")
	gt.True(t, strings.Contains(buf.String(), "console message"))
}
