package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	dErrors "arbor/pkg/domain-errors"
)

// Microdegrees is a coordinate in degrees scaled by 10^6.
// 40712776 is 40.712776 degrees.
type Microdegrees int64

// Centimeters is a physical length in metres scaled by 100.
// 500 is 5.00 m.
type Centimeters int64

// Timestamp is a logical time in Unix seconds.
type Timestamp int64

const (
	maxLatitude  Microdegrees = 90_000_000
	maxLongitude Microdegrees = 180_000_000

	MaxAddressLength = 256
	MaxNameLength    = 128
	MaxNotesLength   = 1024
)

// Degrees converts to floating point degrees for display.
func (m Microdegrees) Degrees() float64 { return float64(m) / 1e6 }

// Metres converts to floating point metres for display.
func (c Centimeters) Metres() float64 { return float64(c) / 100 }

// TimestampOf truncates t to whole Unix seconds.
func TimestampOf(t time.Time) Timestamp { return Timestamp(t.Unix()) }

// Time converts back to wall-clock time in UTC.
func (t Timestamp) Time() time.Time { return time.Unix(int64(t), 0).UTC() }

// Location is a fixed-point geographic position with a free-form address.
type Location struct {
	Latitude  Microdegrees `json:"latitude"`
	Longitude Microdegrees `json:"longitude"`
	Address   string       `json:"address"`
}

// NewLocation validates coordinate ranges and address length.
func NewLocation(lat, lon Microdegrees, address string) (Location, error) {
	if lat < -maxLatitude || lat > maxLatitude {
		return Location{}, dErrors.New(dErrors.CodeInvalidInput, "latitude must be within [-90, 90] degrees")
	}
	if lon < -maxLongitude || lon > maxLongitude {
		return Location{}, dErrors.New(dErrors.CodeInvalidInput, "longitude must be within [-180, 180] degrees")
	}
	address = strings.TrimSpace(address)
	if err := CheckText("address", address, MaxAddressLength); err != nil {
		return Location{}, err
	}
	return Location{Latitude: lat, Longitude: lon, Address: address}, nil
}

// Validate re-checks a location decoded from storage or the wire.
func (l Location) Validate() error {
	_, err := NewLocation(l.Latitude, l.Longitude, l.Address)
	return err
}

// CheckText rejects invalid UTF-8 and values longer than max runes.
func CheckText(field, s string, max int) error {
	if !utf8.ValidString(s) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s must be valid UTF-8", field)
	}
	if utf8.RuneCountInString(s) > max {
		return dErrors.Newf(dErrors.CodeInvalidInput, "%s exceeds %d characters", field, max)
	}
	return nil
}

// RequireText is CheckText plus a non-empty check after trimming.
func RequireText(field, s string, max int) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", field)
	}
	if err := CheckText(field, s, max); err != nil {
		return "", err
	}
	return s, nil
}
