package qc

import (
	"fmt"

	"katapultqc/pkg/units"
)

// heightMessage renders an issue sentence comparing a measured height
// against a required height, both in feet-inches notation per spec.md §6.
func heightMessage(summary string, actualIn, requiredIn int) string {
	return fmt.Sprintf("%s (%s, required %s)", summary, units.FtIn(actualIn), units.FtIn(requiredIn))
}

// sepMessage renders an issue sentence comparing a measured separation
// against a required separation, both in inches with a trailing quote mark.
func sepMessage(summary string, actualIn, requiredIn int) string {
	return fmt.Sprintf("%s (%s, required %s)", summary, units.SepLabel(actualIn), units.SepLabel(requiredIn))
}
