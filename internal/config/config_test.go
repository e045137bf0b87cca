package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func baseEnv() map[string]string {
	return map[string]string{
		"IRIS_BASE_URL": "http://iris:3000",
		"IRIS_WS_URL":   "ws://iris:3000/ws",
		"BOT_PREFIX":    "!",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadWith(envMap(baseEnv()))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.EgressMode != "http" {
		t.Fatalf("egress = %q", cfg.EgressMode)
	}
	if cfg.RepertoireStore != StoreMemory {
		t.Fatalf("store = %q, want memory without REDIS_URL", cfg.RepertoireStore)
	}
	if cfg.TrainerBotDelay != 250*time.Millisecond || cfg.TrainerTick != 50*time.Millisecond {
		t.Fatalf("trainer timing = %v/%v", cfg.TrainerBotDelay, cfg.TrainerTick)
	}
	if !cfg.TrainerAutoAdvance || cfg.TrainerSessionIdle != time.Hour || cfg.TrainerHistoryLimit != 10 {
		t.Fatalf("trainer defaults = %+v", cfg)
	}
	if cfg.OpeningBookMaxPly != 8 || cfg.OpeningBookMinWeight != 1 {
		t.Fatalf("book defaults = %d/%d", cfg.OpeningBookMaxPly, cfg.OpeningBookMinWeight)
	}
}

func TestLoadRequired(t *testing.T) {
	for _, key := range []string{"IRIS_BASE_URL", "IRIS_WS_URL", "BOT_PREFIX"} {
		env := baseEnv()
		delete(env, key)
		_, err := LoadWith(envMap(env))
		if err == nil || !strings.Contains(err.Error(), key) {
			t.Fatalf("missing %s: err = %v", key, err)
		}
	}
}

func TestLoadParsesValues(t *testing.T) {
	env := baseEnv()
	env["ALLOWED_ROOMS"] = " room-a, ,room-b "
	env["REDIS_URL"] = "redis://localhost:6379/0"
	env["EGRESS_MODE"] = "AUTO"
	env["TRAINER_BOT_DELAY_MS"] = "0"
	env["TRAINER_AUTO_ADVANCE"] = "false"
	env["TRAINER_SESSION_IDLE_MIN"] = "5"
	env["OPENING_BOOK_MIN_WEIGHT"] = "70000"

	cfg, err := LoadWith(envMap(env))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedRooms) != 2 || cfg.AllowedRooms[1] != "room-b" {
		t.Fatalf("rooms = %q", cfg.AllowedRooms)
	}
	if cfg.RepertoireStore != StoreRedis {
		t.Fatalf("store = %q, want redis when REDIS_URL set", cfg.RepertoireStore)
	}
	if cfg.EgressMode != "auto" {
		t.Fatalf("egress = %q", cfg.EgressMode)
	}
	if cfg.TrainerBotDelay != 0 || cfg.TrainerAutoAdvance || cfg.TrainerSessionIdle != 5*time.Minute {
		t.Fatalf("trainer = %+v", cfg)
	}
	if cfg.OpeningBookMinWeight != 1 {
		t.Fatalf("out of range weight should keep default, got %d", cfg.OpeningBookMinWeight)
	}
}

func TestLoadRejectsBadEnums(t *testing.T) {
	cases := map[string]string{
		"EGRESS_MODE":      "smtp",
		"REPERTOIRE_STORE": "sqlite",
	}
	for key, value := range cases {
		env := baseEnv()
		env[key] = value
		if _, err := LoadWith(envMap(env)); err == nil {
			t.Fatalf("%s=%s should fail", key, value)
		}
	}

	env := baseEnv()
	env["REPERTOIRE_STORE"] = "redis"
	if _, err := LoadWith(envMap(env)); err == nil {
		t.Fatalf("redis store without REDIS_URL should fail")
	}
}

func TestConfigFileOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trainer.yaml")
	doc := strings.Join([]string{
		"iris_base_url: http://from-file",
		"iris_ws_url: ws://from-file/ws",
		"bot_prefix: '#'",
		"allowed_rooms: [alpha, beta]",
		"trainer_history_limit: 25",
		"repertoire_store: bolt",
		"repertoire_bolt_path: /tmp/reps.db",
	}, "\n")
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := LoadWith(envMap(map[string]string{
		"CONFIG_FILE": path,
		"BOT_PREFIX":  "!",
	}))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ConfigFile != path {
		t.Fatalf("config file = %q", cfg.ConfigFile)
	}
	if cfg.BotPrefix != "!" {
		t.Fatalf("env should win, prefix = %q", cfg.BotPrefix)
	}
	if cfg.IrisBaseURL != "http://from-file" {
		t.Fatalf("base url = %q", cfg.IrisBaseURL)
	}
	if len(cfg.AllowedRooms) != 2 || cfg.AllowedRooms[0] != "alpha" {
		t.Fatalf("rooms = %q", cfg.AllowedRooms)
	}
	if cfg.TrainerHistoryLimit != 25 || cfg.RepertoireStore != StoreBolt || cfg.RepertoireBoltPath != "/tmp/reps.db" {
		t.Fatalf("overlay values = %+v", cfg)
	}
}

func TestConfigFileErrors(t *testing.T) {
	if _, err := LoadWith(envMap(map[string]string{"CONFIG_FILE": filepath.Join(t.TempDir(), "missing.yaml")})); err == nil {
		t.Fatalf("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "nested.yaml")
	if err := os.WriteFile(path, []byte("trainer:\n  tick_ms: 10\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadWith(envMap(map[string]string{"CONFIG_FILE": path})); err == nil {
		t.Fatalf("nested yaml should fail")
	}
}
