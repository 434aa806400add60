package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestGridEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/timetable/grid", nil)

	handler.Grid(c)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			SlotMinutes int      `json:"slot_minutes"`
			Slots       []string `json:"slots"`
			Days        []string `json:"days"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, 30, body.Data.SlotMinutes)
	require.Len(t, body.Data.Slots, 21)
	require.Equal(t, "08:00", body.Data.Slots[0])
	require.Equal(t, "18:00", body.Data.Slots[20])
	require.Equal(t, []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}, body.Data.Days)
}
