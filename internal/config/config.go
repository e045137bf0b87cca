package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	StoreRedis  = "redis"
	StoreBolt   = "bolt"
	StoreMemory = "memory"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	XUserID    string
	XUserEmail string
	XSessionID string

	EgressMode string

	AllowedRooms []string

	RedisURL    string
	DatabaseURL string

	RepertoireStore    string
	RepertoireBoltPath string

	TrainerBotDelay     time.Duration
	TrainerTick         time.Duration
	TrainerAutoAdvance  bool
	TrainerSessionIdle  time.Duration
	TrainerHistoryLimit int

	OpeningBookPath      string
	OpeningBookMaxPly    int
	OpeningBookMinWeight int

	MessagesDir string

	// ConfigFile is the yaml overlay that was applied, if any.
	ConfigFile string
}

// Load reads the process environment, overlaid on CONFIG_FILE when set.
func Load() (*AppConfig, error) {
	return LoadWith(os.Getenv)
}

// LoadWith is Load with an injectable environment lookup.
func LoadWith(getenv func(string) string) (*AppConfig, error) {
	cfg, err := loadValues(getenv)
	if err != nil {
		return nil, err
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	return cfg, nil
}

// LoadTools reads the same values without the chat host requirements.
// Offline tools only need storage and book settings.
func LoadTools() (*AppConfig, error) {
	return loadValues(os.Getenv)
}

func loadValues(getenv func(string) string) (*AppConfig, error) {
	cfg := &AppConfig{
		EgressMode:           "http",
		RepertoireBoltPath:   "data/repertoires.db",
		TrainerBotDelay:      250 * time.Millisecond,
		TrainerTick:          50 * time.Millisecond,
		TrainerAutoAdvance:   true,
		TrainerSessionIdle:   60 * time.Minute,
		TrainerHistoryLimit:  10,
		OpeningBookMaxPly:    8,
		OpeningBookMinWeight: 1,
	}

	get := func(key string) string { return strings.TrimSpace(getenv(key)) }

	if path := get("CONFIG_FILE"); path != "" {
		overlay, err := readOverlay(path)
		if err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
		env := get
		get = func(key string) string {
			if v := env(key); v != "" {
				return v
			}
			return overlay[strings.ToLower(key)]
		}
	}

	cfg.IrisBaseURL = get("IRIS_BASE_URL")
	cfg.IrisWSURL = get("IRIS_WS_URL")
	cfg.BotPrefix = get("BOT_PREFIX")

	cfg.XUserID = get("X_USER_ID")
	cfg.XUserEmail = get("X_USER_EMAIL")
	cfg.XSessionID = get("X_SESSION_ID")

	if v := strings.ToLower(get("EGRESS_MODE")); v != "" {
		switch v {
		case "http", "ws", "auto":
			cfg.EgressMode = v
		default:
			return nil, fmt.Errorf("EGRESS_MODE must be http, ws or auto: %q", v)
		}
	}

	if v := get("ALLOWED_ROOMS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			s := strings.TrimSpace(p)
			if s != "" {
				cfg.AllowedRooms = append(cfg.AllowedRooms, s)
			}
		}
	}

	cfg.RedisURL = get("REDIS_URL")
	cfg.DatabaseURL = get("DATABASE_URL")

	cfg.RepertoireStore = strings.ToLower(get("REPERTOIRE_STORE"))
	switch cfg.RepertoireStore {
	case "":
		cfg.RepertoireStore = StoreMemory
		if cfg.RedisURL != "" {
			cfg.RepertoireStore = StoreRedis
		}
	case StoreRedis:
		if cfg.RedisURL == "" {
			return nil, errors.New("REDIS_URL is required for REPERTOIRE_STORE=redis")
		}
	case StoreBolt, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown REPERTOIRE_STORE %q", cfg.RepertoireStore)
	}
	if v := get("REPERTOIRE_BOLT_PATH"); v != "" {
		cfg.RepertoireBoltPath = v
	}

	if v := get("TRAINER_BOT_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.TrainerBotDelay = time.Duration(n) * time.Millisecond
		}
	}
	if v := get("TRAINER_TICK_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TrainerTick = time.Duration(n) * time.Millisecond
		}
	}
	if v := get("TRAINER_AUTO_ADVANCE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TrainerAutoAdvance = b
		}
	}
	if v := get("TRAINER_SESSION_IDLE_MIN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TrainerSessionIdle = time.Duration(n) * time.Minute
		}
	}
	if v := get("TRAINER_HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TrainerHistoryLimit = n
		}
	}

	cfg.OpeningBookPath = get("OPENING_BOOK_PATH")
	if v := get("OPENING_BOOK_MAX_PLY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.OpeningBookMaxPly = n
		}
	}
	if v := get("OPENING_BOOK_MIN_WEIGHT"); v != "" {
		// polyglot weights are uint16
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 0xffff {
			cfg.OpeningBookMinWeight = n
		}
	}

	cfg.MessagesDir = get("MESSAGES_DIR")
	return cfg, nil
}

// readOverlay flattens a yaml document to lower snake keys. Lists become
// comma separated values so ALLOWED_ROOMS can be written either way.
func readOverlay(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	out := make(map[string]string, len(doc))
	for k, v := range doc {
		key := strings.ToLower(strings.TrimSpace(k))
		switch vv := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(vv))
			for _, item := range vv {
				parts = append(parts, strings.TrimSpace(fmt.Sprint(item)))
			}
			out[key] = strings.Join(parts, ",")
		case map[string]any:
			return nil, fmt.Errorf("config file %s: nested value at %q", path, k)
		default:
			out[key] = strings.TrimSpace(fmt.Sprint(vv))
		}
	}
	return out, nil
}
