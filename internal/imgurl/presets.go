package imgurl

// Fit controls how the resize proxy maps the source into the requested box.
type Fit string

const (
	FitCover     Fit = "cover"
	FitContain   Fit = "contain"
	FitScaleDown Fit = "scale-down"
)

// Preset is one rung of the quality ladder.
type Preset struct {
	Name    string
	Width   int
	Quality int
	Fit     Fit
}

// The ladder is strictly increasing in width×quality so every tier is a
// visible upgrade over the one below it.
var (
	Placeholder = Preset{Name: "placeholder", Width: 16, Quality: 10, Fit: FitCover}
	Thumb       = Preset{Name: "thumb", Width: 250, Quality: 35, Fit: FitCover}
	Medium      = Preset{Name: "medium", Width: 500, Quality: 40, Fit: FitScaleDown}
	Preview     = Preset{Name: "preview", Width: 1000, Quality: 60, Fit: FitScaleDown}
	Full        = Preset{Name: "full", Width: 1600, Quality: 85, Fit: FitScaleDown}
)

// Ladder lists the presets from cheapest to richest.
func Ladder() []Preset {
	return []Preset{Placeholder, Thumb, Medium, Preview, Full}
}

// ByName returns the preset with the given name, defaulting to Medium for
// unknown names so a bad tier string never breaks URL construction.
func ByName(name string) Preset {
	for _, p := range Ladder() {
		if p.Name == name {
			return p
		}
	}
	return Medium
}
