package camera

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	PresetBench   = "bench"
)

// Presets returns all available preset configurations.
func Presets() map[string]Config {
	return map[string]Config{
		PresetDefault: DefaultConfig(),
		PresetVGA:     VGAConfig(),
		PresetBench:   BenchConfig(),
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// VGAConfig captures at 640x480. Pair it with a calibration measured or
// scaled to the same size.
func VGAConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// BenchConfig is a slow capture for tuning on the bench with the wheels
// off the ground.
func BenchConfig() Config {
	cfg := DefaultConfig()
	cfg.Framerate = 10
	return cfg
}
