package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log       Log       `yaml:"log"`
	Server    Server    `yaml:"server"`
	Assistant Assistant `yaml:"assistant"`
	Responder Responder `yaml:"responder"`
	Speech    Speech    `yaml:"speech"`
}

type Server struct {
	// Listen address of the HTTP API
	Addr string `yaml:"addr" example:":8080" validate:"required"`
}

type Assistant struct {
	// Skip text-to-speech narration entirely (text-only responses)
	DisableAudio bool `yaml:"disable_audio" example:"false"`
}

type Responder struct {
	// Response generation mode
	Mode string `yaml:"mode" example:"rules" validate:"oneof=rules openai"`
	// OpenAI-compatible model config, required for mode=openai
	OpenAI ModelConfig `yaml:"openai"`
}

type ModelConfig struct {
	// OpenAI base url
	BaseURL string `yaml:"base_url" example:"https://openrouter.ai/api/v1"`
	// OpenAI token
	Token string `yaml:"token" example:"sk-proj-abc123456789DEF789ghi012JKL345mno678PQR901stu234VWX"`
	// OpenAI model
	Model string `yaml:"model" example:"gpt-4o-mini"`
}

type Speech struct {
	// Text-to-speech backend
	Backend string `yaml:"backend" example:"simulate" validate:"oneof=simulate speechkit"`
	// SpeechKit synthesis settings, used for backend=speechkit
	SpeechKit SpeechKit `yaml:"speech_kit"`
}

type SpeechKit struct {
	// Voice name
	Voice string `yaml:"voice" example:"jane"`
	// Speech rate multiplier
	Rate float64 `yaml:"rate" example:"1.0"`
	// Yandex Cloud folder ID
	FolderID string `yaml:"folder_id" example:"b1gabcdef123456789ab"`
	// Path to the service account key file
	KeyFile string `yaml:"key_file" example:"service-account-key.json"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	var result Config

	data, err := os.ReadFile("config.yaml")
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	applyDefaults(&result)

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	if result.Responder.Mode == "openai" {
		if result.Responder.OpenAI.BaseURL == "" || result.Responder.OpenAI.Token == "" || result.Responder.OpenAI.Model == "" {
			return nil, oops.Errorf("responder.openai requires base_url, token and model")
		}
	}

	return &result, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Responder.Mode == "" {
		cfg.Responder.Mode = "rules"
	}
	if cfg.Speech.Backend == "" {
		cfg.Speech.Backend = "simulate"
	}
	if cfg.Speech.SpeechKit.Voice == "" {
		cfg.Speech.SpeechKit.Voice = "jane"
	}
	if cfg.Speech.SpeechKit.Rate == 0 {
		cfg.Speech.SpeechKit.Rate = 1.0
	}
	if cfg.Speech.SpeechKit.KeyFile == "" {
		cfg.Speech.SpeechKit.KeyFile = "service-account-key.json"
	}
}
