package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainerListDecoding(t *testing.T) {
	cases := map[string]TrainerList{
		`"trainer-a"`:               {"trainer-a"},
		`["trainer-a","trainer-b"]`: {"trainer-a", "trainer-b"},
		`""`:                        {},
		`null`:                      nil,
		`[7, "x"]`:                  {"7", "x"},
	}
	for raw, want := range cases {
		var got TrainerList
		require.NoError(t, json.Unmarshal([]byte(raw), &got), raw)
		assert.Equal(t, want, got, raw)
	}

	var bad TrainerList
	assert.Error(t, json.Unmarshal([]byte(`{"id":1}`), &bad))
}

func TestTrainerListMarshalAlwaysArray(t *testing.T) {
	out, err := json.Marshal(TrainerList(nil))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	var scanned TrainerList
	require.NoError(t, scanned.Scan([]byte(`"solo"`)))
	assert.Equal(t, TrainerList{"solo"}, scanned)
}

func TestProgramModes(t *testing.T) {
	zero := int64(0)
	p := Program{StartDate: &zero}
	assert.False(t, p.HasRange())
	p.EndDate = &zero
	assert.True(t, p.HasRange())
	assert.False(t, p.HasSelectedDates())
}
