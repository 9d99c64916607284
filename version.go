package femto

import _ "embed"

// Version is the release of the femto module.
//
//go:embed VERSION
var Version string
