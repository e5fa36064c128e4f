package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/roster"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration.
type Config struct {
	ServiceName string           `yaml:"service_name"`
	Environment string           `yaml:"environment"`
	HTTP        HTTPConfig       `yaml:"http"`
	Telemetry   TelemetryConfig  `yaml:"telemetry"`
	Discussion  DiscussionConfig `yaml:"discussion"`
	Pacing      PacingConfig     `yaml:"pacing"`
	Transport   TransportConfig  `yaml:"transport"`
	LLM         LLMConfig        `yaml:"llm"`
	STT         STTConfig        `yaml:"stt"`
	TTS         TTSConfig        `yaml:"tts"`
	Events      EventsConfig     `yaml:"events"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type TelemetryConfig struct {
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"` // json, text
	Traces       string `yaml:"traces"`     // none, stdout, otlp
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
}

type ParticipantConfig struct {
	Name    string `yaml:"name"`
	Persona string `yaml:"persona"`
}

type DiscussionConfig struct {
	Topic              string              `yaml:"topic"`
	Username           string              `yaml:"username"`
	Language           string              `yaml:"language"`
	SilenceThresholdMS int                 `yaml:"silence_threshold_ms"`
	ContextWindow      int                 `yaml:"context_window"`
	Moderator          ParticipantConfig   `yaml:"moderator"`
	Agents             []ParticipantConfig `yaml:"agents"`
}

type PacingConfig struct {
	PerCharMS int `yaml:"per_char_ms"`
	BaseMS    int `yaml:"base_ms"`
}

type TransportConfig struct {
	ReadLimitBytes int64    `yaml:"read_limit_bytes"`
	WriteTimeoutMS int      `yaml:"write_timeout_ms"`
	PingIntervalMS int      `yaml:"ping_interval_ms"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LLMConfig struct {
	Mode             string  `yaml:"mode"` // gemini, cerebras, mock
	GeminiKey        string  `yaml:"gemini_api_key"`
	GeminiModel      string  `yaml:"gemini_model"`
	CerebrasKey      string  `yaml:"cerebras_api_key"`
	CerebrasModel    string  `yaml:"cerebras_model"`
	CerebrasEndpoint string  `yaml:"cerebras_endpoint"`
	MaxTokens        int     `yaml:"max_tokens"`
	Temperature      float64 `yaml:"temperature"`
	TimeoutMS        int     `yaml:"timeout_ms"`
}

type STTConfig struct {
	Mode          string `yaml:"mode"` // assemblyai, exec, mock
	FFmpegCommand string `yaml:"ffmpeg_command"`
	AssemblyAIKey string `yaml:"assemblyai_api_key"`
	AssemblyAIURL string `yaml:"assemblyai_url"`
	Command       string `yaml:"command"`
	ModelPath     string `yaml:"model_path"`
	Language      string `yaml:"language"`
	TimeoutMS     int    `yaml:"timeout_ms"`
}

type TTSConfig struct {
	Mode                   string `yaml:"mode"` // elevenlabs, deepgram, mock
	ElevenLabsKey          string `yaml:"elevenlabs_api_key"`
	ElevenLabsVoiceID      string `yaml:"elevenlabs_voice_id"`
	ElevenLabsModel        string `yaml:"elevenlabs_model"`
	ElevenLabsOutputFormat string `yaml:"elevenlabs_output_format"`
	DeepgramKey            string `yaml:"deepgram_api_key"`
	DeepgramModel          string `yaml:"deepgram_model"`
	DeepgramSampleRate     int    `yaml:"deepgram_sample_rate"`
	TimeoutMS              int    `yaml:"timeout_ms"`
}

type EventsConfig struct {
	Enabled          bool     `yaml:"enabled"`
	Embedded         bool     `yaml:"embedded"`
	EmbeddedPort     int      `yaml:"embedded_port"`
	Servers          []string `yaml:"servers"`
	Token            string   `yaml:"token"`
	SubjectPrefix    string   `yaml:"subject_prefix"`
	ConnectTimeoutMS int      `yaml:"connect_timeout_ms"`
}

// Default returns the configuration used when no file or environment is given.
func Default() Config {
	return Config{
		ServiceName: "gd-room",
		Environment: "development",
		HTTP:        HTTPConfig{Address: ":8080"},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			LogFormat:    "json",
			Traces:       "none",
			OTLPInsecure: true,
		},
		Discussion: DiscussionConfig{
			Topic:              roster.DefaultTopic,
			Username:           roster.DefaultUsername,
			Language:           roster.DefaultLanguage,
			SilenceThresholdMS: 500,
			ContextWindow:      6,
		},
		Pacing: PacingConfig{PerCharMS: 30, BaseMS: 1000},
		Transport: TransportConfig{
			ReadLimitBytes: 10 << 20,
			WriteTimeoutMS: 10000,
			PingIntervalMS: 30000,
		},
		LLM: LLMConfig{
			Mode:             "gemini",
			GeminiModel:      "gemini-2.0-flash",
			CerebrasModel:    "gpt-oss-120b",
			CerebrasEndpoint: "https://api.cerebras.ai/v1/chat/completions",
			MaxTokens:        256,
			Temperature:      0.7,
			TimeoutMS:        20000,
		},
		STT: STTConfig{
			Mode:          "assemblyai",
			FFmpegCommand: "ffmpeg",
			AssemblyAIURL: "wss://streaming.assemblyai.com/v3/ws",
			Language:      "en",
			TimeoutMS:     30000,
		},
		TTS: TTSConfig{
			Mode:                   "elevenlabs",
			ElevenLabsModel:        "eleven_flash_v2_5",
			ElevenLabsOutputFormat: "mp3_44100_128",
			DeepgramModel:          "aura-2-thalia-en",
			DeepgramSampleRate:     24000,
			TimeoutMS:              15000,
		},
		Events: EventsConfig{
			EmbeddedPort:     4222,
			Servers:          []string{"nats://localhost:4222"},
			SubjectPrefix:    "gd.turns",
			ConnectTimeoutMS: 2000,
		},
	}
}

// Load reads .env (when present), the optional YAML file at path and the
// environment, in that order of increasing precedence.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.HTTP.Address, "HTTP_ADDRESS")
	overrideString(&cfg.ServiceName, "GD_SERVICE_NAME")
	overrideString(&cfg.Environment, "GD_ENVIRONMENT")

	overrideString(&cfg.Telemetry.LogLevel, "GD_LOG_LEVEL")
	overrideString(&cfg.Telemetry.LogFormat, "GD_LOG_FORMAT")
	overrideString(&cfg.Telemetry.Traces, "GD_TRACES")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "GD_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "GD_OTLP_INSECURE")

	overrideString(&cfg.Discussion.Topic, "GD_DISCUSSION_TOPIC")
	overrideString(&cfg.Discussion.Username, "GD_DISCUSSION_USERNAME")
	overrideString(&cfg.Discussion.Language, "GD_DISCUSSION_LANGUAGE")
	overrideInt(&cfg.Discussion.SilenceThresholdMS, "GD_DISCUSSION_SILENCE_THRESHOLD_MS")
	overrideInt(&cfg.Discussion.ContextWindow, "GD_DISCUSSION_CONTEXT_WINDOW")

	overrideInt(&cfg.Pacing.PerCharMS, "GD_PACING_PER_CHAR_MS")
	overrideInt(&cfg.Pacing.BaseMS, "GD_PACING_BASE_MS")

	overrideInt64(&cfg.Transport.ReadLimitBytes, "GD_TRANSPORT_READ_LIMIT_BYTES")
	overrideInt(&cfg.Transport.WriteTimeoutMS, "GD_TRANSPORT_WRITE_TIMEOUT_MS")
	overrideInt(&cfg.Transport.PingIntervalMS, "GD_TRANSPORT_PING_INTERVAL_MS")
	overrideStringSlice(&cfg.Transport.AllowedOrigins, "GD_TRANSPORT_ALLOWED_ORIGINS")

	overrideString(&cfg.LLM.Mode, "GD_LLM_MODE")
	overrideString(&cfg.LLM.GeminiKey, "GEMINI_API_KEY")
	overrideString(&cfg.LLM.GeminiModel, "GD_LLM_GEMINI_MODEL")
	overrideString(&cfg.LLM.CerebrasKey, "CEREBRAS_API_KEY")
	overrideString(&cfg.LLM.CerebrasModel, "CEREBRAS_MODEL_ID")
	overrideString(&cfg.LLM.CerebrasEndpoint, "GD_LLM_CEREBRAS_ENDPOINT")
	overrideInt(&cfg.LLM.MaxTokens, "GD_LLM_MAX_TOKENS")
	overrideFloat(&cfg.LLM.Temperature, "GD_LLM_TEMPERATURE")
	overrideInt(&cfg.LLM.TimeoutMS, "GD_LLM_TIMEOUT_MS")

	overrideString(&cfg.STT.Mode, "GD_STT_MODE")
	overrideString(&cfg.STT.FFmpegCommand, "GD_STT_FFMPEG_COMMAND")
	overrideString(&cfg.STT.AssemblyAIKey, "ASSEMBLYAI_API_KEY")
	overrideString(&cfg.STT.AssemblyAIURL, "GD_STT_ASSEMBLYAI_URL")
	overrideString(&cfg.STT.Command, "GD_STT_COMMAND")
	overrideString(&cfg.STT.ModelPath, "GD_STT_MODEL_PATH")
	overrideString(&cfg.STT.Language, "GD_STT_LANGUAGE")
	overrideInt(&cfg.STT.TimeoutMS, "GD_STT_TIMEOUT_MS")

	overrideString(&cfg.TTS.Mode, "GD_TTS_MODE")
	overrideString(&cfg.TTS.ElevenLabsKey, "ELEVENLABS_API_KEY")
	overrideString(&cfg.TTS.ElevenLabsVoiceID, "ELEVENLABS_VOICE_ID")
	overrideString(&cfg.TTS.ElevenLabsModel, "GD_TTS_ELEVENLABS_MODEL")
	overrideString(&cfg.TTS.ElevenLabsOutputFormat, "GD_TTS_ELEVENLABS_OUTPUT_FORMAT")
	overrideString(&cfg.TTS.DeepgramKey, "DEEPGRAM_API_KEY")
	overrideString(&cfg.TTS.DeepgramModel, "GD_TTS_DEEPGRAM_MODEL")
	overrideInt(&cfg.TTS.DeepgramSampleRate, "GD_TTS_DEEPGRAM_SAMPLE_RATE")
	overrideInt(&cfg.TTS.TimeoutMS, "GD_TTS_TIMEOUT_MS")

	overrideBool(&cfg.Events.Enabled, "GD_EVENTS_ENABLED")
	overrideBool(&cfg.Events.Embedded, "GD_EVENTS_EMBEDDED")
	overrideInt(&cfg.Events.EmbeddedPort, "GD_EVENTS_EMBEDDED_PORT")
	overrideStringSlice(&cfg.Events.Servers, "GD_EVENTS_SERVERS")
	overrideString(&cfg.Events.Token, "GD_EVENTS_TOKEN")
	overrideString(&cfg.Events.SubjectPrefix, "GD_EVENTS_SUBJECT_PREFIX")
	overrideInt(&cfg.Events.ConnectTimeoutMS, "GD_EVENTS_CONNECT_TIMEOUT_MS")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideInt64(target *int64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			*target = parsed
		}
	}
}

func overrideFloat(target *float64, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			*target = parsed
		}
	}
}

func overrideStringSlice(target *[]string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		var trimmed []string
		for _, p := range strings.Split(value, ",") {
			if s := strings.TrimSpace(p); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		if len(trimmed) > 0 {
			*target = trimmed
		}
	}
}

func validate(cfg Config) error {
	if strings.TrimSpace(cfg.ServiceName) == "" {
		return errors.New("service_name must not be empty")
	}
	if strings.TrimSpace(cfg.HTTP.Address) == "" {
		return errors.New("http.address must not be empty")
	}
	switch cfg.Telemetry.LogFormat {
	case "json", "text":
	default:
		return errors.New("telemetry.log_format must be one of json|text")
	}
	switch cfg.Telemetry.Traces {
	case "none", "stdout":
	case "otlp":
		if strings.TrimSpace(cfg.Telemetry.OTLPEndpoint) == "" {
			return errors.New("telemetry.otlp_endpoint must be set when traces=otlp")
		}
	default:
		return errors.New("telemetry.traces must be one of none|stdout|otlp")
	}
	if strings.TrimSpace(cfg.Discussion.Topic) == "" {
		return errors.New("discussion.topic must not be empty")
	}
	if strings.TrimSpace(cfg.Discussion.Username) == "" {
		return errors.New("discussion.username must not be empty")
	}
	if cfg.Discussion.SilenceThresholdMS <= 0 {
		return errors.New("discussion.silence_threshold_ms must be positive")
	}
	if cfg.Discussion.ContextWindow <= 0 {
		return errors.New("discussion.context_window must be positive")
	}
	r, err := cfg.Discussion.Roster()
	if err != nil {
		return err
	}
	if r.Has(cfg.Discussion.Username) {
		return fmt.Errorf("discussion.username %q collides with a roster participant", cfg.Discussion.Username)
	}
	if cfg.Pacing.PerCharMS < 0 || cfg.Pacing.BaseMS < 0 {
		return errors.New("pacing values must be >= 0")
	}
	if cfg.Transport.ReadLimitBytes <= 0 {
		return errors.New("transport.read_limit_bytes must be positive")
	}
	if cfg.Transport.WriteTimeoutMS <= 0 {
		return errors.New("transport.write_timeout_ms must be positive")
	}
	switch cfg.LLM.Mode {
	case "gemini", "cerebras", "mock":
	default:
		return errors.New("llm.mode must be one of gemini|cerebras|mock")
	}
	switch cfg.STT.Mode {
	case "assemblyai", "mock":
	case "exec":
		if strings.TrimSpace(cfg.STT.Command) == "" {
			return errors.New("stt.command must be set when mode=exec")
		}
	default:
		return errors.New("stt.mode must be one of assemblyai|exec|mock")
	}
	if strings.TrimSpace(cfg.STT.FFmpegCommand) == "" {
		return errors.New("stt.ffmpeg_command must not be empty")
	}
	switch cfg.TTS.Mode {
	case "elevenlabs", "deepgram", "mock":
	default:
		return errors.New("tts.mode must be one of elevenlabs|deepgram|mock")
	}
	if cfg.Events.Enabled {
		if cfg.Events.Embedded {
			if cfg.Events.EmbeddedPort <= 0 || cfg.Events.EmbeddedPort > 65535 {
				return errors.New("events.embedded_port must be between 1 and 65535")
			}
		} else if len(cfg.Events.Servers) == 0 {
			return errors.New("events.servers must not be empty when events are enabled")
		}
		if strings.TrimSpace(cfg.Events.SubjectPrefix) == "" {
			return errors.New("events.subject_prefix must not be empty")
		}
	}
	return nil
}

// Roster builds the participant roster, falling back to the built-in one when
// no agents are configured.
func (d DiscussionConfig) Roster() (roster.Roster, error) {
	if len(d.Agents) == 0 && d.Moderator.Name == "" {
		return roster.Default(), nil
	}
	mod := roster.Participant{Name: d.Moderator.Name}
	if mod.Name == "" {
		mod.Name = roster.Default().Moderator().Name
	}
	agents := make([]roster.Participant, 0, len(d.Agents))
	for _, a := range d.Agents {
		agents = append(agents, roster.Participant{Name: a.Name, Persona: a.Persona})
	}
	if len(agents) == 0 {
		agents = roster.Default().Agents()
	}
	r, err := roster.New(mod, agents)
	if err != nil {
		return roster.Roster{}, fmt.Errorf("discussion: %w", err)
	}
	return r, nil
}

// Warnings lists missing credentials for the selected backends. Calls to a
// backend without credentials fail and degrade to placeholder output.
func (c Config) Warnings() []string {
	var out []string
	switch c.LLM.Mode {
	case "gemini":
		if c.LLM.GeminiKey == "" {
			out = append(out, "GEMINI_API_KEY not set - agents will speak placeholder errors")
		}
	case "cerebras":
		if c.LLM.CerebrasKey == "" {
			out = append(out, "CEREBRAS_API_KEY not set - agents will speak placeholder errors")
		}
	}
	if c.STT.Mode == "assemblyai" && c.STT.AssemblyAIKey == "" {
		out = append(out, "ASSEMBLYAI_API_KEY not set - transcription will not work")
	}
	switch c.TTS.Mode {
	case "elevenlabs":
		if c.TTS.ElevenLabsKey == "" {
			out = append(out, "ELEVENLABS_API_KEY not set - TTS will not work")
		}
		if c.TTS.ElevenLabsVoiceID == "" {
			out = append(out, "ELEVENLABS_VOICE_ID not set - TTS will not work; set a concrete voice ID from your ElevenLabs dashboard")
		}
	case "deepgram":
		if c.TTS.DeepgramKey == "" {
			out = append(out, "DEEPGRAM_API_KEY not set - TTS will not work")
		}
	}
	return out
}

func (p PacingConfig) PerChar() time.Duration { return time.Duration(p.PerCharMS) * time.Millisecond }
func (p PacingConfig) Base() time.Duration    { return time.Duration(p.BaseMS) * time.Millisecond }

func (d DiscussionConfig) SilenceThreshold() time.Duration {
	return time.Duration(d.SilenceThresholdMS) * time.Millisecond
}

func millis(ms int) time.Duration { return time.Duration(ms) * time.Millisecond }

func (t TransportConfig) WriteTimeout() time.Duration { return millis(t.WriteTimeoutMS) }
func (t TransportConfig) PingInterval() time.Duration { return millis(t.PingIntervalMS) }
func (l LLMConfig) Timeout() time.Duration            { return millis(l.TimeoutMS) }
func (s STTConfig) Timeout() time.Duration            { return millis(s.TimeoutMS) }
func (s TTSConfig) Timeout() time.Duration            { return millis(s.TimeoutMS) }
func (e EventsConfig) ConnectTimeout() time.Duration  { return millis(e.ConnectTimeoutMS) }
