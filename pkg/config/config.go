package config

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/spf13/viper"

	"github.com/SA-IT-Team/ai-interview-assistant/pkg/interview"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/notify"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/resume"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/session"
	"github.com/SA-IT-Team/ai-interview-assistant/pkg/transports/ws"
)

// Config is the immutable application configuration, built once at startup
// and passed explicitly into the components that need it.
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`

	Transport ws.Config       `mapstructure:"transport"`
	Vendors   VendorsConfig   `mapstructure:"vendors"`
	Interview InterviewConfig `mapstructure:"interview"`
	Resume    resume.Config   `mapstructure:"resume"`
	Report    ReportConfig    `mapstructure:"report"`
	Privacy   PrivacyConfig   `mapstructure:"privacy"`
}

// VendorConfig selects one provider implementation plus its free-form
// settings, decoded by the provider itself.
type VendorConfig struct {
	Provider string         `mapstructure:"provider"`
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	STT VendorConfig `mapstructure:"stt"`
	TTS VendorConfig `mapstructure:"tts"`
	LLM VendorConfig `mapstructure:"llm"`
}

// ReportConfig configures the optional terminal-report consumers.
type ReportConfig struct {
	Webhook notify.WebhookConfig `mapstructure:"webhook"`
	SMS     notify.SMSConfig     `mapstructure:"sms"`
}

type PrivacyConfig struct {
	RedactPII bool `mapstructure:"redact_pii"`
}

// InterviewConfig carries the flow and ending tunables of the interview
// policy.
type InterviewConfig struct {
	FollowupCap      int `mapstructure:"followup_cap"`
	ClarificationCap int `mapstructure:"clarification_cap"`
	LowScoreMax      int `mapstructure:"low_score_max"`
	ShortAnswerChars int `mapstructure:"short_answer_chars"`

	MinMinutes       int     `mapstructure:"min_minutes"`
	MaxMinutes       int     `mapstructure:"max_minutes"`
	MinQuestions     int     `mapstructure:"min_questions"`
	StrongAverage    float64 `mapstructure:"strong_average"`
	StrongHighScores int     `mapstructure:"strong_high_scores"`
	WeakAverage      float64 `mapstructure:"weak_average"`
	WeakLowScores    int     `mapstructure:"weak_low_scores"`

	MinAudioBytes  int `mapstructure:"min_audio_bytes"`
	ReadyTimeoutMS int `mapstructure:"ready_timeout_ms"`
}

// SessionConfig converts the interview tunables into the orchestrator's
// configuration value.
func (c InterviewConfig) SessionConfig() session.Config {
	return session.Config{
		Flow: interview.FlowConfig{
			FollowupCap:      c.FollowupCap,
			ClarificationCap: c.ClarificationCap,
			LowScoreMax:      c.LowScoreMax,
			ShortAnswerChars: c.ShortAnswerChars,
		},
		Ending: interview.EndingConfig{
			MinElapsed:       time.Duration(c.MinMinutes) * time.Minute,
			MaxElapsed:       time.Duration(c.MaxMinutes) * time.Minute,
			MinQuestions:     c.MinQuestions,
			StrongAverage:    c.StrongAverage,
			StrongHighScores: c.StrongHighScores,
			WeakAverage:      c.WeakAverage,
			WeakLowScores:    c.WeakLowScores,
		},
		MinAudioBytes: c.MinAudioBytes,
		ReadyTimeout:  time.Duration(c.ReadyTimeoutMS) * time.Millisecond,
	}
}

// LoadConfig reads the config file, applies defaults and expands ${ENV}
// references in every string value, including the vendor settings maps.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("transport.server_addr", ":8080")
	v.SetDefault("transport.ws_path", "/ws/interview")
	v.SetDefault("transport.upload_path", "/upload-resume")
	v.SetDefault("vendors.stt.provider", "openai")
	v.SetDefault("vendors.tts.provider", "elevenlabs")
	v.SetDefault("vendors.llm.provider", "openai")
	v.SetDefault("interview.followup_cap", 4)
	v.SetDefault("interview.clarification_cap", 2)
	v.SetDefault("interview.low_score_max", 2)
	v.SetDefault("interview.short_answer_chars", 15)
	v.SetDefault("interview.min_minutes", 15)
	v.SetDefault("interview.max_minutes", 20)
	v.SetDefault("interview.min_questions", 5)
	v.SetDefault("interview.strong_average", 3.5)
	v.SetDefault("interview.strong_high_scores", 2)
	v.SetDefault("interview.weak_average", 2.5)
	v.SetDefault("interview.weak_low_scores", 3)
	v.SetDefault("interview.min_audio_bytes", 1000)
	v.SetDefault("interview.ready_timeout_ms", 30000)
	v.SetDefault("privacy.redact_pii", true)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	expandEnvStrings(&cfg)
	return cfg, nil
}

func expandEnvStrings(cfg *Config) {
	expandValue(reflect.ValueOf(cfg))
	cfg.Vendors.STT.Settings = expandSettings(cfg.Vendors.STT.Settings)
	cfg.Vendors.TTS.Settings = expandSettings(cfg.Vendors.TTS.Settings)
	cfg.Vendors.LLM.Settings = expandSettings(cfg.Vendors.LLM.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, val := range settings {
		settings[k] = expandAny(val)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, inner := range val {
			val[k] = expandAny(inner)
		}
		return val
	default:
		return v
	}
}

func expandValue(v reflect.Value) {
	if !v.IsValid() {
		return
	}
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return
		}
		expandValue(v.Elem())
		return
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			expandValue(v.Field(i))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(os.ExpandEnv(v.String()))
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			expandValue(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && v.Type().Elem().Kind() == reflect.String {
			for _, key := range v.MapKeys() {
				expanded := os.ExpandEnv(v.MapIndex(key).String())
				v.SetMapIndex(key, reflect.ValueOf(expanded))
			}
		}
	}
}
