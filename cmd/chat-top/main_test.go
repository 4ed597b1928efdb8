package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nixlim/chat-top/internal/config"
)

func TestBuildClassification_Defaults(t *testing.T) {
	cls, err := buildClassification(config.DefaultConfig().Classification)
	if err != nil {
		t.Fatalf("buildClassification: %v", err)
	}
	if cls.MinContactDays != 7 {
		t.Errorf("MinContactDays = %v, want 7", cls.MinContactDays)
	}
	if len(cls.Buckets) != 4 {
		t.Errorf("buckets = %d, want 4", len(cls.Buckets))
	}
}

func TestBuildClassification_Overrides(t *testing.T) {
	cc := config.ClassificationConfig{
		Photo:          []string{"Снимков"},
		PrimaryMetrics: []string{"Сообщений отправлено"},
		MinContactDays: 14,
	}
	cls, err := buildClassification(cc)
	if err != nil {
		t.Fatalf("buildClassification: %v", err)
	}
	for _, b := range cls.Buckets {
		if b.Name == "Фото" && strings.Join(b.Keys, ",") != "Снимков" {
			t.Errorf("Фото keys = %v, want [Снимков]", b.Keys)
		}
	}
	if strings.Join(cls.PrimaryMetrics, ",") != "Сообщений отправлено" {
		t.Errorf("PrimaryMetrics = %v", cls.PrimaryMetrics)
	}
	if cls.MinContactDays != 14 {
		t.Errorf("MinContactDays = %v, want 14", cls.MinContactDays)
	}
}

func TestBuildClassification_Invalid(t *testing.T) {
	if _, err := buildClassification(config.ClassificationConfig{MinContactDays: -1}); err == nil {
		t.Error("negative threshold should fail validation")
	}
}

func TestSetupLogging_DebugFile(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	path := filepath.Join(t.TempDir(), "debug.log")
	closeLog, err := setupLogging(config.LogConfig{Level: "warn"}, path, true)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	log.Debug().Msg("hello debug")
	closeLog()
	if zerolog.GlobalLevel() != zerolog.Disabled {
		t.Errorf("closing the debug log should disable logging, level = %v", zerolog.GlobalLevel())
	}
	log.Info().Msg("after close")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "hello debug") {
		t.Errorf("debug log should capture debug messages, got %q", data)
	}
	if strings.Contains(string(data), "after close") {
		t.Errorf("nothing should be written after close, got %q", data)
	}
}

func TestSetupLogging_BadLevel(t *testing.T) {
	if _, err := setupLogging(config.LogConfig{Level: "loud"}, "", true); err == nil {
		t.Error("unknown level should fail")
	}
}
