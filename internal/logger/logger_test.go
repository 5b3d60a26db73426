package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log.Info().Msg("hidden")
	log.Warn().Str("symbol", "SPY").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["symbol"] != "SPY" || entry["level"] != "warn" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSetupWriter_UnknownLevel(t *testing.T) {
	var buf bytes.Buffer
	SetupWriter(&buf, "chatty", "json")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("level = %v, want info", zerolog.GlobalLevel())
	}
}
