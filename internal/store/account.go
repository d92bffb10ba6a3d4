package store

import "strings"

// Carrier identifies the ISP channel an account authenticates through.
// The gateway multiplexes three upstream carriers and expects the numeric
// channel code with every login.
type Carrier string

// Supported carriers and their gateway channel codes.
const (
	CarrierMobile  Carrier = "mobile"  // China Mobile, channel 2
	CarrierTelecom Carrier = "telecom" // China Telecom, channel 3
	CarrierUnicom  Carrier = "unicom"  // China Unicom, channel 4
)

// Channel returns the gateway channel code for the carrier, as the string
// the login endpoint expects. Returns "" for an unknown carrier.
func (c Carrier) Channel() string {
	switch c {
	case CarrierMobile:
		return "2"
	case CarrierTelecom:
		return "3"
	case CarrierUnicom:
		return "4"
	default:
		return ""
	}
}

// Valid reports whether c is one of the supported carriers.
func (c Carrier) Valid() bool {
	return c.Channel() != ""
}

// Account is one gateway identity, persisted as a single JSON file under
// the accounts directory, keyed by ID.
type Account struct {
	// ID is the gateway username and the record key. Never empty.
	ID string `json:"id"`
	// Password is the gateway password. Empty means "not remembered".
	Password string `json:"password"`
	// Carrier selects the ISP channel submitted with every login.
	Carrier Carrier `json:"carrier"`
	// RememberPassword controls whether Password may be written to disk.
	// When false, [Store.Save] blanks the field before persisting.
	RememberPassword bool `json:"rememberPassword"`
	// AutoLoginOnStart requests one immediate login attempt at daemon
	// startup. Only meaningful when RememberPassword is true.
	AutoLoginOnStart bool `json:"autoLoginOnStart"`
}

// valid reports whether the record is well-formed enough to cache. The ID
// doubles as the record's file name, so path separators are rejected to
// keep every record inside the accounts directory.
func (a Account) valid() bool {
	return a.ID != "" && !strings.ContainsAny(a.ID, `/\`) && a.Carrier.Valid()
}
