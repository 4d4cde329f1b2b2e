package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manila(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Manila")
	require.NoError(t, err)
	return loc
}

func TestDecodeDateValueKinds(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		kind DateKind
	}{
		{"timestamp", `{"seconds": 1709251200, "nanoseconds": 0}`, DateKindTimestamp},
		{"underscore timestamp", `{"_seconds": 1709251200, "_nanoseconds": 5}`, DateKindTimestamp},
		{"epoch seconds", `1709251200`, DateKindEpochSeconds},
		{"epoch millis", `1709251200000`, DateKindEpochMillis},
		{"string", `"2024-03-01"`, DateKindString},
		{"null", `null`, DateKindUnparseable},
		{"bool", `true`, DateKindUnparseable},
		{"object without seconds", `{"date": "2024-03-01"}`, DateKindUnparseable},
		{"array", `[1]`, DateKindUnparseable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, DecodeDateValue([]byte(tc.raw)).Kind)
		})
	}
}

func TestDateValueResolve(t *testing.T) {
	loc := manila(t)
	want := time.Date(2024, 3, 1, 8, 0, 0, 0, loc)

	assert.True(t, TimestampDate(want.Unix(), 0).Resolve(loc).Time.Equal(want))
	assert.True(t, EpochDate(float64(want.Unix())).Resolve(loc).Time.Equal(want))
	assert.True(t, EpochDate(float64(want.UnixMilli())).Resolve(loc).Time.Equal(want))
	assert.True(t, StringDate("2024-03-01T08:00:00+08:00").Resolve(loc).Time.Equal(want))
	assert.True(t, StringDate("2024-03-01 08:00:00").Resolve(loc).Time.Equal(want))
	assert.Equal(t, loc, TimestampDate(want.Unix(), 0).Resolve(loc).Time.Location())

	dateOnly := StringDate("2024-03-01").Resolve(loc)
	require.True(t, dateOnly.Valid)
	assert.True(t, dateOnly.Time.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))

	assert.False(t, StringDate("not a date").Resolve(loc).Valid)
	assert.False(t, DecodeDateValue([]byte("null")).Resolve(loc).Valid)
}

func TestDateValueResolveOutOfRangeIsInvalid(t *testing.T) {
	for _, raw := range []string{"1e300", "-1e300", "9e18", "8640000000000001", `{"seconds":9000000000000}`} {
		assert.False(t, DecodeDateValue([]byte(raw)).Resolve(time.UTC).Valid, raw)
	}

	edge := DecodeDateValue([]byte("8640000000000000")).Resolve(time.UTC)
	require.True(t, edge.Valid)
	assert.Equal(t, int64(8.64e15), edge.UnixMilli())
	assert.True(t, DecodeDateValue([]byte(`{"seconds":-8640000000000}`)).Resolve(time.UTC).Valid)
}

func TestDateValueMarshalPreservesEncoding(t *testing.T) {
	var values DateValues
	require.NoError(t, json.Unmarshal([]byte(`[{"_seconds":1,"_nanoseconds":0},"2024-03-01",1709251200000,null]`), &values))
	require.Len(t, values, 4)

	out, err := json.Marshal(values)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"_seconds":1,"_nanoseconds":0},"2024-03-01",1709251200000,null]`, string(out))

	built, err := json.Marshal([]DateValue{TimestampDate(5, 0), EpochDate(10)})
	require.NoError(t, err)
	assert.JSONEq(t, `[{"seconds":5,"nanoseconds":0},10]`, string(built))
}

func TestDateValuesScan(t *testing.T) {
	var values DateValues
	require.NoError(t, values.Scan([]byte(`[1709251200]`)))
	require.Len(t, values, 1)
	assert.Equal(t, DateKindEpochSeconds, values[0].Kind)

	require.NoError(t, values.Scan(nil))
	assert.Nil(t, values)
	assert.Error(t, values.Scan(42))
}

func TestInstantJSON(t *testing.T) {
	in := InstantOf(time.Date(2024, 3, 1, 8, 0, 0, 0, manila(t)))
	out, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Equal(t, `"2024-03-01T00:00:00.000Z"`, string(out))

	var back Instant
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, back.Equal(in))

	out, err = json.Marshal(InvalidInstant())
	require.NoError(t, err)
	assert.Equal(t, `"Invalid Date"`, string(out))
	require.NoError(t, json.Unmarshal(out, &back))
	assert.False(t, back.Valid)
}
