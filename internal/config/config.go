package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pr-riad/MPPT-P-O/internal/mppt"
)

const (
	DefaultStepSize   = 0.5
	DefaultMinVoltage = 10.0
	DefaultMaxVoltage = 45.0
	DefaultSampleTime = 0.2
	DefaultDuration   = 20.0
	DefaultNoiseSigma = 0.05
)

type Config struct {
	Panel       string        `yaml:"panel"`
	Converter   string        `yaml:"converter"`
	Tracker     TrackerConfig `yaml:"tracker"`
	Sim         SimConfig     `yaml:"sim"`
	PanelParams PanelConfig   `yaml:"panel_params"`
}

type TrackerConfig struct {
	StepSize     float64 `yaml:"step_size"`
	MinVoltage   float64 `yaml:"min_voltage"`
	MaxVoltage   float64 `yaml:"max_voltage"`
	SampleTime   float64 `yaml:"sample_time"`
	HistoryLimit int     `yaml:"history_limit"`
}

type SimConfig struct {
	Duration      float64 `yaml:"duration"`
	Seed          int64   `yaml:"seed"`
	NoiseSigma    float64 `yaml:"noise_sigma"`
	ConverterGain float64 `yaml:"converter_gain"`
	RealTime      bool    `yaml:"realtime"`
}

type PanelConfig struct {
	Imax       float64 `yaml:"imax"`
	Peak       float64 `yaml:"peak"`
	Width      float64 `yaml:"width"`
	Isc        float64 `yaml:"isc"`
	Voc        float64 `yaml:"voc"`
	Shape      float64 `yaml:"shape"`
	Irradiance float64 `yaml:"irradiance"`
}

func DefaultConfig() *Config {
	return &Config{
		Panel:     "gaussian",
		Converter: "ideal",
		Tracker: TrackerConfig{
			StepSize:   DefaultStepSize,
			MinVoltage: DefaultMinVoltage,
			MaxVoltage: DefaultMaxVoltage,
			SampleTime: DefaultSampleTime,
		},
		Sim: SimConfig{
			Duration:   DefaultDuration,
			NoiseSigma: DefaultNoiseSigma,
		},
		PanelParams: PanelConfig{
			Irradiance: 1.0,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// MPPTConfig converts the tracker section into the controller's Config.
func (c *Config) MPPTConfig() mppt.Config {
	return mppt.Config{
		StepSize:     c.Tracker.StepSize,
		MinVoltage:   c.Tracker.MinVoltage,
		MaxVoltage:   c.Tracker.MaxVoltage,
		SampleTime:   c.Tracker.SampleTime,
		HistoryLimit: c.Tracker.HistoryLimit,
	}
}
