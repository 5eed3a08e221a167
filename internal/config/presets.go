package config

var Presets = map[string]map[string]*Config{
	"gaussian": {
		"clean": {
			Panel: "gaussian", Converter: "ideal",
			Tracker: TrackerConfig{StepSize: 0.5, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.2},
			Sim:     SimConfig{Duration: 20.0},
		},
		"noisy": {
			Panel: "gaussian", Converter: "ideal",
			Tracker: TrackerConfig{StepSize: 0.5, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.2},
			Sim:     SimConfig{Duration: 20.0, NoiseSigma: 0.05},
		},
		"fine": {
			Panel: "gaussian", Converter: "ideal",
			Tracker: TrackerConfig{StepSize: 0.1, MinVoltage: 10, MaxVoltage: 45, SampleTime: 0.1},
			Sim:     SimConfig{Duration: 30.0, NoiseSigma: 0.05},
		},
	},
	"singlediode": {
		"clean": {
			Panel: "singlediode", Converter: "ideal",
			Tracker: TrackerConfig{StepSize: 0.25, MinVoltage: 5, MaxVoltage: 21, SampleTime: 0.2},
			Sim:     SimConfig{Duration: 20.0},
		},
		"sluggish": {
			Panel: "singlediode", Converter: "lag",
			Tracker: TrackerConfig{StepSize: 0.25, MinVoltage: 5, MaxVoltage: 21, SampleTime: 0.2},
			Sim:     SimConfig{Duration: 30.0, NoiseSigma: 0.02, ConverterGain: 0.5},
		},
	},
}

func GetPreset(panel, preset string) *Config {
	panelPresets, ok := Presets[panel]
	if !ok {
		return nil
	}
	cfg, ok := panelPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(panel string) []string {
	panelPresets, ok := Presets[panel]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(panelPresets))
	for name := range panelPresets {
		names = append(names, name)
	}
	return names
}
