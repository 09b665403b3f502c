package record

// Reading is a single telemetry value reported by a device.
//
// All fields are optional: a device reports whatever subset of sensors
// and actuators it has. Nil means "not reported", which is distinct
// from a zero value (a battery at 0.0 is a real measurement).
//
// The canonical JSON form produced by EncodeCanonical is the
// authoritative representation of a Reading: it is what gets stored,
// hashed, and decoded on read. The same scalar fields are also
// mirrored into dedicated store columns at write time, but that mirror
// is a denormalized projection for ad-hoc querying only.
type Reading struct {
	Battery     *float64 `json:"battery,omitempty"`
	DoorOpen    *bool    `json:"door_open,omitempty"`
	HeaterOn    *bool    `json:"heater_on,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Pressure    *float64 `json:"pressure,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// IsZero reports whether no field of the reading is set.
// Empty readings are rejected at ingestion - there is nothing to store.
func (r Reading) IsZero() bool {
	return r.Battery == nil &&
		r.DoorOpen == nil &&
		r.HeaterOn == nil &&
		r.Humidity == nil &&
		r.Pressure == nil &&
		r.Status == nil &&
		r.Temperature == nil
}

// Float returns a pointer to v. Convenience for literal construction.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v. Convenience for literal construction.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v. Convenience for literal construction.
func String(v string) *string { return &v }
