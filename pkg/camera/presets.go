package camera

// Preset names for common capture configurations
const (
	PresetDefault = "default"
	PresetLow     = "low"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// Preset is a named capture size.
type Preset struct {
	Width  int
	Height int
	FPS    int
}

// Presets returns all available capture presets.
func Presets() map[string]Preset {
	return map[string]Preset{
		PresetDefault: {Width: 640, Height: 480, FPS: 30},
		PresetLow:     {Width: 320, Height: 240, FPS: 30},
		Preset720p:    {Width: 1280, Height: 720, FPS: 30},
		Preset1080p:   {Width: 1920, Height: 1080, FPS: 15}, // lower framerate at full HD
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetLow, Preset720p, Preset1080p}
}

// GetPreset returns a preset by name, or nil if not found.
func GetPreset(name string) *Preset {
	presets := Presets()
	if p, ok := presets[name]; ok {
		return &p
	}
	return nil
}
