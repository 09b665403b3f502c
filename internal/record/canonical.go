package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"
)

// EncodeCanonical produces the canonical JSON form of a reading.
// This is the ONLY serialization that may be stored or fingerprinted:
// two readings with equal field values always encode to identical
// bytes, across process restarts and platforms.
//
// Properties of the canonical form:
//  1. Object keys emitted in sorted order
//  2. Unset (nil) fields omitted entirely
//  3. No HTML escaping (< > & are NOT escaped)
//  4. Strings NFC normalized at the serialization boundary
//  5. Floats in Go's shortest round-trip JSON formatting
func EncodeCanonical(r Reading) ([]byte, error) {
	for name, f := range map[string]*float64{
		"battery":     r.Battery,
		"humidity":    r.Humidity,
		"pressure":    r.Pressure,
		"temperature": r.Temperature,
	} {
		if f != nil && (math.IsNaN(*f) || math.IsInf(*f, 0)) {
			return nil, fmt.Errorf("encode %s: %v is not representable in JSON", name, *f)
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	emit := func(key string, val []byte) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		buf.WriteByte('"')
		buf.WriteString(key)
		buf.WriteString(`":`)
		buf.Write(val)
	}

	// Fields in sorted key order. New fields must be inserted in
	// order here AND added to Reading; the canonical form depends on it.
	if r.Battery != nil {
		emit("battery", appendFloat(*r.Battery))
	}
	if r.DoorOpen != nil {
		emit("door_open", appendBool(*r.DoorOpen))
	}
	if r.HeaterOn != nil {
		emit("heater_on", appendBool(*r.HeaterOn))
	}
	if r.Humidity != nil {
		emit("humidity", appendFloat(*r.Humidity))
	}
	if r.Pressure != nil {
		emit("pressure", appendFloat(*r.Pressure))
	}
	if r.Status != nil {
		s, err := canonicalString(*r.Status)
		if err != nil {
			return nil, fmt.Errorf("encode status: %w", err)
		}
		emit("status", s)
	}
	if r.Temperature != nil {
		emit("temperature", appendFloat(*r.Temperature))
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeCanonical parses canonical JSON back into a Reading.
// Unknown fields are rejected: a payload that no longer matches the
// current schema must surface as a decode failure, not be silently
// truncated.
func DecodeCanonical(data []byte) (Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var r Reading
	if err := dec.Decode(&r); err != nil {
		return Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	return r, nil
}

// appendFloat formats a float the way encoding/json does: shortest
// representation that round-trips, deterministic for a given value.
// NaN/Inf are rejected before this is reached.
func appendFloat(v float64) []byte {
	b, _ := json.Marshal(v)
	return b
}

func appendBool(v bool) []byte {
	if v {
		return []byte("true")
	}
	return []byte("false")
}

// canonicalString produces a canonical JSON string: NFC normalized,
// no HTML escaping.
func canonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false) // < > & must NOT be escaped
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline, remove it
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}
	return result, nil
}
