package apds9960

import "github.com/mklimuk/proximity"

// DefaultAddress is the fixed 7-bit I2C address of the APDS-9960.
const DefaultAddress = 0x39

// ExpectedID is the value of the ID register on genuine parts.
const ExpectedID = 0xAB

// Register map (subset used for proximity sensing).
const (
	RegEnable      proximity.Register = 0x80
	RegLowThresh   proximity.Register = 0x89
	RegHighThresh  proximity.Register = 0x8B
	RegPersistence proximity.Register = 0x8C
	RegID          proximity.Register = 0x92
	RegStatus      proximity.Register = 0x93
	RegData        proximity.Register = 0x9C
)

// ENABLE register bits
const (
	EnablePON  = 0x01
	EnablePEN  = 0x04
	EnablePIEN = 0x20
)

// StatusPValid is set in STATUS when a proximity cycle completed since the
// last PDATA read.
const StatusPValid = 0x02

// Defaults programmed during configuration.
const (
	DefaultLowThreshold  = 0
	DefaultHighThreshold = 175
	// PPERS = 12 consecutive out-of-range cycles before an interrupt
	DefaultPersistence = 0xC0
	DefaultEnable      = EnablePIEN | EnablePEN | EnablePON
)
