package config

import (
	"strings"
	"testing"
)

func TestLoad_defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ChunkSize != 65536 {
		t.Errorf("ChunkSize = %d, want 65536", cfg.ChunkSize)
	}
	if cfg.MQTTTopic != "video/events" {
		t.Errorf("MQTTTopic = %q", cfg.MQTTTopic)
	}
	if cfg.AutoCloseOnEnd {
		t.Error("AutoCloseOnEnd should default to false")
	}
	if cfg.SendBufferMessages <= 0 {
		t.Errorf("SendBufferMessages = %d", cfg.SendBufferMessages)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate on defaults: %v", err)
	}
}

func TestValidate_chunkSize(t *testing.T) {
	cfg, _ := Load()
	cfg.ChunkSize = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero chunk size")
	}
}

func TestDatabaseURL_escapesPassword(t *testing.T) {
	cfg, _ := Load()
	cfg.DB.Password = "p@ss/word"
	url := cfg.DatabaseURL()
	if want := "p%40ss%2Fword"; !strings.Contains(url, want) {
		t.Errorf("DatabaseURL = %q, want escaped password %q", url, want)
	}
}
