package domain

import "time"

// Stats summarizes a compiled program.
type Stats struct {
	Instructions int `json:"instructions"`
	Moves        int `json:"moves"`
	// ShutterToggles counts the executed ON and OFF switches, loops unrolled.
	ShutterToggles int     `json:"shutter_toggles"`
	DwellTime      float64 `json:"dwell_time"`
	PathLength     float64 `json:"path_length"`
	// EstimatedTime is the expected fabrication time in seconds.
	EstimatedTime float64 `json:"estimated_time"`
}

// Program is the output of a compilation.
type Program struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Filename  string    `json:"filename"`
	Text      string    `json:"text"`
	Stats     Stats     `json:"stats"`
	CreatedAt time.Time `json:"created_at"`
}
