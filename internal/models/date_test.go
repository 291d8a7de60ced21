package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateAcceptsCalendarDayAndRFC3339(t *testing.T) {
	var body struct {
		CheckIn  Date `json:"checkIn"`
		CheckOut Date `json:"checkOut"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"checkIn":"2025-06-01","checkOut":"2025-08-01T12:00:00+02:00"}`), &body))

	assert.True(t, body.CheckIn.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, body.CheckOut.Equal(time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)))
}

func TestDateRejectsOtherForms(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"01/06/2025"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`20250601`), &d))
}

func TestPatchWithCalendarDates(t *testing.T) {
	var patch ApplicationPatch
	require.NoError(t, json.Unmarshal([]byte(`{"checkOut":"2025-01-15"}`), &patch))

	out, err := patch.Apply(request())
	require.NoError(t, err)
	assert.True(t, out.(RequestDetails).CheckOut.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, json.Unmarshal([]byte(`{"checkOut":"2024-08-01"}`), &patch))
	_, err = patch.Apply(request())
	assert.Error(t, err)
}
