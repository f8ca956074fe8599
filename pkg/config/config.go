// Package config carries forward the teacher's flat Config-struct
// style (see pkg/orchestrator.Config / DefaultConfig in the teacher
// repo) but loads it through viper instead of hand-parsed env vars, so
// a YAML file and environment variables both populate the same
// struct.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// VADPreset names one of the redemption-time presets from
// original_source/crates/vad/src/lib.rs.
type VADPreset string

const (
	VADPresetDefault    VADPreset = "default"
	VADPresetResponsive VADPreset = "responsive"
	VADPresetMeeting    VADPreset = "meeting"
	VADPresetDictation  VADPreset = "dictation"
)

// Config is the single struct threaded through the pipeline's
// constructors, the way the teacher's Config is threaded through
// Orchestrator/ManagedStream.
type Config struct {
	// Audio Bus
	AudioChunkMs      int `mapstructure:"audio_chunk_ms"`
	AudioBusCapacityMs int `mapstructure:"audio_bus_capacity_ms"`

	// VAD Gate
	VADPreset VADPreset `mapstructure:"vad_preset"`

	// Streaming Transcriber
	MaxBufferSeconds       float64 `mapstructure:"max_buffer_seconds"`
	StableWindowSeconds    float64 `mapstructure:"stable_window_seconds"`
	TranscribeThresholdMs  int     `mapstructure:"transcribe_threshold_ms"`
	TrimPaddingMs          int     `mapstructure:"trim_padding_ms"`

	// Turn Detector
	TurnThreshold      float64 `mapstructure:"turn_threshold"`
	TurnWindowSeconds  float64 `mapstructure:"turn_window_seconds"`

	// Commit Coordinator
	CommitThresholdSeconds float64 `mapstructure:"commit_threshold_seconds"`
	SilenceInjectionMs     int     `mapstructure:"silence_injection_ms"`

	// Router Queue
	DebounceMs int `mapstructure:"debounce_ms"`

	// Tool policy
	MinConfidence           float64       `mapstructure:"min_confidence"`
	FirstAttemptConfidence  float64       `mapstructure:"first_attempt_confidence"`
	RepairAttemptConfidence float64       `mapstructure:"repair_attempt_confidence"`
	CacheTTL                time.Duration `mapstructure:"cache_ttl"`
	ToolCooldown            time.Duration `mapstructure:"tool_cooldown"`
	ToolTimeout             time.Duration `mapstructure:"tool_timeout"`
	MaxChainDepth           int           `mapstructure:"max_chain_depth"`
	AutoRunReadOnly         bool          `mapstructure:"auto_run_read_only"`

	// Context
	DefaultLang string `mapstructure:"default_lang"`

	DataDir string `mapstructure:"data_dir"`
}

// Default returns the spec's literal default constants.
func Default() Config {
	return Config{
		AudioChunkMs:            50,
		AudioBusCapacityMs:      1500,
		VADPreset:               VADPresetDefault,
		MaxBufferSeconds:        5,
		StableWindowSeconds:     3,
		TranscribeThresholdMs:   250,
		TrimPaddingMs:           150,
		TurnThreshold:           0.5,
		TurnWindowSeconds:       8,
		CommitThresholdSeconds:  4,
		SilenceInjectionMs:      100,
		DebounceMs:              650,
		MinConfidence:           0.35,
		FirstAttemptConfidence:  0.85,
		RepairAttemptConfidence: 0.55,
		CacheTTL:                15 * time.Minute,
		ToolCooldown:            45 * time.Second,
		ToolTimeout:             30 * time.Second,
		MaxChainDepth:           1,
		AutoRunReadOnly:         true,
		DefaultLang:             "en",
		DataDir:                 "gibb.eri.sh",
	}
}

// Load reads viper configuration (env vars prefixed GIBBERISH_, plus an
// optional YAML file) on top of Default(), mirroring the teacher's
// cmd/agent/main.go env-driven setup but through viper instead of
// os.Getenv.
func Load(configFile string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("GIBBERISH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
				return cfg, err
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("audio_chunk_ms", cfg.AudioChunkMs)
	v.SetDefault("audio_bus_capacity_ms", cfg.AudioBusCapacityMs)
	v.SetDefault("vad_preset", string(cfg.VADPreset))
	v.SetDefault("max_buffer_seconds", cfg.MaxBufferSeconds)
	v.SetDefault("stable_window_seconds", cfg.StableWindowSeconds)
	v.SetDefault("transcribe_threshold_ms", cfg.TranscribeThresholdMs)
	v.SetDefault("trim_padding_ms", cfg.TrimPaddingMs)
	v.SetDefault("turn_threshold", cfg.TurnThreshold)
	v.SetDefault("turn_window_seconds", cfg.TurnWindowSeconds)
	v.SetDefault("commit_threshold_seconds", cfg.CommitThresholdSeconds)
	v.SetDefault("silence_injection_ms", cfg.SilenceInjectionMs)
	v.SetDefault("debounce_ms", cfg.DebounceMs)
	v.SetDefault("min_confidence", cfg.MinConfidence)
	v.SetDefault("first_attempt_confidence", cfg.FirstAttemptConfidence)
	v.SetDefault("repair_attempt_confidence", cfg.RepairAttemptConfidence)
	v.SetDefault("cache_ttl", cfg.CacheTTL)
	v.SetDefault("tool_cooldown", cfg.ToolCooldown)
	v.SetDefault("tool_timeout", cfg.ToolTimeout)
	v.SetDefault("max_chain_depth", cfg.MaxChainDepth)
	v.SetDefault("auto_run_read_only", cfg.AutoRunReadOnly)
	v.SetDefault("default_lang", cfg.DefaultLang)
	v.SetDefault("data_dir", cfg.DataDir)
}
