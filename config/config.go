package config

import (
	"encoding/json"
	"errors"
	"os"
	"strings"
	"time"
)

// Config holds the webhook destination and generation settings.
type Config struct {
	WebhookURL      string         `json:"webhook_url"`
	LLM             *LLMConfig     `json:"llm,omitempty"`
	ServerAddr      string         `json:"server_addr,omitempty"`
	AutoTrigger     bool           `json:"auto_trigger"`
	RequireApproval bool           `json:"require_approval"`
	Trigger         *TriggerConfig `json:"trigger,omitempty"`
}

// LLMConfig 生成模块的模型配置。
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// TriggerConfig selects the weekly window during which an automatic
// run may fire. The window is one minute wide; the poller samples it
// at second granularity.
type TriggerConfig struct {
	Weekday string `json:"weekday,omitempty"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
}

// Weekday names accepted in config, matching time.Weekday strings.
var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday resolves a config weekday name; empty defaults to Friday.
func ParseWeekday(name string) (time.Weekday, error) {
	if name == "" {
		return time.Friday, nil
	}
	d, ok := weekdays[strings.ToLower(name)]
	if !ok {
		return 0, errors.New("unknown weekday: " + name)
	}
	return d, nil
}

// LoadConfig reads JSON config from disk.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.WebhookURL == "" {
		return Config{}, errors.New("config must include webhook_url")
	}
	if cfg.Trigger != nil {
		if _, err := ParseWeekday(cfg.Trigger.Weekday); err != nil {
			return Config{}, err
		}
		if cfg.Trigger.Hour < 0 || cfg.Trigger.Hour > 23 || cfg.Trigger.Minute < 0 || cfg.Trigger.Minute > 59 {
			return Config{}, errors.New("trigger hour/minute out of range")
		}
	}
	return cfg, nil
}
