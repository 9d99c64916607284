package domain

import (
	"fmt"
	"strings"
)

// FabricationLine selects the header used for the program.
type FabricationLine string

const (
	LineCapable FabricationLine = "CAPABLE"
	LineFire    FabricationLine = "FIRE"
)

// ParseFabricationLine normalizes a fabrication line name.
func ParseFabricationLine(s string) (FabricationLine, error) {
	switch l := FabricationLine(strings.ToUpper(strings.TrimSpace(s))); l {
	case "":
		return LineCapable, nil
	case LineCapable, LineFire:
		return l, nil
	default:
		return "", fmt.Errorf("fabrication line must be CAPABLE or FIRE, given %s", l)
	}
}

// Laser identifies the laser source of the setup.
type Laser string

const (
	LaserPharos  Laser = "PHAROS"
	LaserCarbide Laser = "CARBIDE"
	LaserUWE     Laser = "UWE"
)

// ParseLaser normalizes a laser name.
func ParseLaser(s string) (Laser, error) {
	switch l := Laser(strings.ToUpper(strings.TrimSpace(s))); l {
	case "":
		return LaserPharos, nil
	case LaserPharos, LaserCarbide, LaserUWE:
		return l, nil
	default:
		return "", fmt.Errorf("laser can be only PHAROS, CARBIDE or UWE, given %s", l)
	}
}

// ShutterTime is the time in seconds the shutter needs to switch.
func (l Laser) ShutterTime() float64 {
	if l == LaserPharos {
		return 0.0
	}
	return 0.005
}
