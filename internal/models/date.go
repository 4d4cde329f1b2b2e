package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// InvalidDateSentinel is rendered for instants that could not be decoded.
const InvalidDateSentinel = "Invalid Date"

// epochMillisThreshold separates epoch seconds from epoch milliseconds.
const epochMillisThreshold = 1e12

// maxEpochMillis bounds representable instants to ±100,000,000 days around the epoch.
const maxEpochMillis = 8.64e15

const instantLayout = "2006-01-02T15:04:05.000Z07:00"

// Instant is an absolute point in time that may be the invalid-date sentinel.
type Instant struct {
	Time  time.Time
	Valid bool
}

// InstantOf wraps a time value.
func InstantOf(t time.Time) Instant {
	return Instant{Time: t, Valid: true}
}

// InvalidInstant returns the invalid-date sentinel.
func InvalidInstant() Instant {
	return Instant{}
}

// EpochSeconds converts an epoch-seconds value into an Instant.
func EpochSeconds(sec int64) Instant {
	return InstantOf(time.Unix(sec, 0))
}

// UnixMilli returns the instant in epoch milliseconds, or 0 when invalid.
func (i Instant) UnixMilli() int64 {
	if !i.Valid {
		return 0
	}
	return i.Time.UnixMilli()
}

// In converts the instant into the given location. Invalid instants stay invalid.
func (i Instant) In(loc *time.Location) Instant {
	if !i.Valid || loc == nil {
		return i
	}
	return InstantOf(i.Time.In(loc))
}

// Equal reports whether both instants denote the same moment (or are both invalid).
func (i Instant) Equal(other Instant) bool {
	if i.Valid != other.Valid {
		return false
	}
	return !i.Valid || i.Time.Equal(other.Time)
}

func (i Instant) String() string {
	if !i.Valid {
		return InvalidDateSentinel
	}
	return i.Time.UTC().Format(instantLayout)
}

// MarshalJSON renders the instant as an ISO-8601 UTC string or the invalid sentinel.
func (i Instant) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.String())
}

// UnmarshalJSON accepts the output of MarshalJSON.
func (i *Instant) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode instant: %w", err)
	}
	if raw == "" || raw == InvalidDateSentinel {
		*i = InvalidInstant()
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		*i = InvalidInstant()
		return nil
	}
	*i = InstantOf(t)
	return nil
}

// DateKind tags how a raw date value was encoded upstream.
type DateKind string

const (
	DateKindTimestamp    DateKind = "timestamp"
	DateKindEpochSeconds DateKind = "epoch_seconds"
	DateKindEpochMillis  DateKind = "epoch_millis"
	DateKindString       DateKind = "string"
	DateKindUnparseable  DateKind = "unparseable"
)

// DateValue is one element of a program's selectedDates, decoded into exactly one kind.
type DateValue struct {
	Kind    DateKind
	Seconds int64
	Nanos   int64
	Number  float64
	Text    string

	raw json.RawMessage
}

// TimestampDate builds a document-store timestamp value.
func TimestampDate(seconds, nanos int64) DateValue {
	return DateValue{Kind: DateKindTimestamp, Seconds: seconds, Nanos: nanos}
}

// EpochDate builds a numeric value, classified as seconds or milliseconds by magnitude.
func EpochDate(n float64) DateValue {
	if n < epochMillisThreshold {
		return DateValue{Kind: DateKindEpochSeconds, Number: n}
	}
	return DateValue{Kind: DateKindEpochMillis, Number: n}
}

// StringDate builds a textual date value.
func StringDate(text string) DateValue {
	return DateValue{Kind: DateKindString, Text: text}
}

// DecodeDateValue classifies a raw JSON value. It never fails: anything it cannot
// classify becomes DateKindUnparseable.
func DecodeDateValue(data []byte) DateValue {
	trimmed := bytes.TrimSpace(data)
	raw := append(json.RawMessage(nil), trimmed...)
	unparseable := DateValue{Kind: DateKindUnparseable, raw: raw}
	if len(trimmed) == 0 {
		return unparseable
	}

	switch c := trimmed[0]; {
	case c == '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &fields); err != nil {
			return unparseable
		}
		seconds, ok := firstInt(fields, "seconds", "_seconds")
		if !ok {
			return unparseable
		}
		nanos, _ := firstInt(fields, "nanoseconds", "_nanoseconds")
		value := TimestampDate(seconds, nanos)
		value.raw = raw
		return value
	case c == '"':
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return unparseable
		}
		value := StringDate(text)
		value.raw = raw
		return value
	case c == '-' || (c >= '0' && c <= '9'):
		n, err := strconv.ParseFloat(string(trimmed), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return unparseable
		}
		value := EpochDate(n)
		value.raw = raw
		return value
	default:
		return unparseable
	}
}

// Resolve converts the value into an instant expressed in loc.
func (d DateValue) Resolve(loc *time.Location) Instant {
	if loc == nil {
		loc = time.UTC
	}
	switch d.Kind {
	case DateKindTimestamp:
		if !withinEpochRange(float64(d.Seconds)*1000 + float64(d.Nanos)/1e6) {
			return InvalidInstant()
		}
		return InstantOf(time.Unix(d.Seconds, d.Nanos).In(loc))
	case DateKindEpochSeconds:
		ms := math.Round(d.Number * 1000)
		if !withinEpochRange(ms) {
			return InvalidInstant()
		}
		return InstantOf(time.UnixMilli(int64(ms)).In(loc))
	case DateKindEpochMillis:
		if !withinEpochRange(d.Number) {
			return InvalidInstant()
		}
		return InstantOf(time.UnixMilli(int64(d.Number)).In(loc))
	case DateKindString:
		t, ok := parseDateString(d.Text, loc)
		if !ok {
			return InvalidInstant()
		}
		return InstantOf(t.In(loc))
	case DateKindUnparseable:
		return InvalidInstant()
	default:
		return InvalidInstant()
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *DateValue) UnmarshalJSON(data []byte) error {
	*d = DecodeDateValue(data)
	return nil
}

// MarshalJSON re-emits the upstream encoding so values survive a round trip.
func (d DateValue) MarshalJSON() ([]byte, error) {
	if len(d.raw) > 0 {
		return d.raw, nil
	}
	switch d.Kind {
	case DateKindTimestamp:
		return json.Marshal(map[string]int64{"seconds": d.Seconds, "nanoseconds": d.Nanos})
	case DateKindEpochSeconds, DateKindEpochMillis:
		return []byte(strconv.FormatFloat(d.Number, 'f', -1, 64)), nil
	case DateKindString:
		return json.Marshal(d.Text)
	default:
		return []byte("null"), nil
	}
}

// DateValues is the JSONB-backed selectedDates column.
type DateValues []DateValue

// Value implements driver.Valuer.
func (v DateValues) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal([]DateValue(v))
	if err != nil {
		return nil, fmt.Errorf("marshal selected dates: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner.
func (v *DateValues) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan selected dates: %w", err)
	}
	if len(data) == 0 || string(data) == "null" {
		*v = nil
		return nil
	}
	var items []DateValue
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("unmarshal selected dates: %w", err)
	}
	*v = items
	return nil
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"2006-01-02T15:04:05.000Z0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
}

// parseDateString accepts the common textual encodings found in program records.
// Date-only ISO strings are UTC; other zone-less strings use loc.
func parseDateString(text string, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, false
	}
	if idx := strings.Index(text, " ("); idx > 0 {
		text = text[:idx]
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	if t, err := time.Parse("2006-01-02", text); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func withinEpochRange(ms float64) bool {
	return !math.IsNaN(ms) && math.Abs(ms) <= maxEpochMillis
}

func firstInt(fields map[string]json.RawMessage, keys ...string) (int64, bool) {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			continue
		}
		n, err := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if err != nil {
			return 0, false
		}
		return int64(n), true
	}
	return 0, false
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
