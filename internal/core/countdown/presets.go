package countdown

import "time"

// Preset is a one-tap duration offered next to the manual inputs.
type Preset struct {
	Label    string
	Duration time.Duration
}

// Presets lists the quick durations, shortest first.
var Presets = []Preset{
	{Label: "1m", Duration: time.Minute},
	{Label: "5m", Duration: 5 * time.Minute},
	{Label: "10m", Duration: 10 * time.Minute},
	{Label: "15m", Duration: 15 * time.Minute},
	{Label: "25m", Duration: 25 * time.Minute},
}
