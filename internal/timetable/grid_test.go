package timetable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlotsCoverTeachingDay(t *testing.T) {
	slots := Slots()
	require.Equal(t, 21, len(slots))
	assert.Equal(t, "08:00", slots[0])
	assert.Equal(t, "08:30", slots[1])
	assert.Equal(t, "18:00", slots[len(slots)-1])
}

func TestDaysMondayThroughSaturday(t *testing.T) {
	days := Days()
	require.Equal(t, 6, len(days))
	assert.Equal(t, "Monday", days[0])
	assert.Equal(t, "Saturday", days[5])
}

func TestSlotIndexAndEnd(t *testing.T) {
	assert.Equal(t, 0, SlotIndex("08:00"))
	assert.Equal(t, 2, SlotIndex("09:00"))
	assert.Equal(t, -1, SlotIndex("08:15"))
	assert.Equal(t, -1, SlotIndex("19:00"))

	assert.Equal(t, "09:30", SlotEnd("09:00"))
	assert.Equal(t, "18:30", SlotEnd("18:00"))
	assert.Equal(t, "", SlotEnd("07:00"))
}

func TestCheckAlignment(t *testing.T) {
	assert.NoError(t, CheckAlignment("08:00", "08:30"))
	assert.NoError(t, CheckAlignment("17:30", ""))

	assert.Error(t, CheckAlignment("08:10", "08:40"))
	assert.Error(t, CheckAlignment("08:00", "09:00"), "end must close the 30-minute slot")
	assert.Error(t, CheckAlignment("18:30", ""), "past the last grid start")
}
