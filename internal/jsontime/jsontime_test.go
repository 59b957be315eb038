package jsontime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeJSON(t *testing.T) {
	var payload struct {
		At  Time  `json:"at"`
		Opt *Time `json:"opt"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"at":"2024-01-01 10:30:00","opt":null}`), &payload))
	assert.Equal(t, time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC), payload.At.Time)
	assert.Nil(t, payload.Opt)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2024-01-01 10:30:00","opt":null}`, string(out))
}

func TestTimeRejectsOtherLayouts(t *testing.T) {
	var v Time
	assert.Error(t, json.Unmarshal([]byte(`"2024-01-01T10:30:00Z"`), &v))
	assert.Error(t, json.Unmarshal([]byte(`12345`), &v))
}

func TestZeroMarshalsAsNull(t *testing.T) {
	out, err := json.Marshal(Time{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
