package echoapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/kipiapp/kipi/core/subject"
)

type scheduleApi struct {
	store *subject.Store
}

func registerScheduleAPI(g *echo.Group, store *subject.Store) {
	api := scheduleApi{store: store}
	g.GET("/schedule/week", api.week)
}

type (
	weekEntry struct {
		SubjectID string `json:"subjectId"`
		Name      string `json:"name"`
		Color     string `json:"color"`
		StartTime string `json:"startTime"`
		EndTime   string `json:"endTime"`
		Classroom string `json:"classroom,omitempty"`
	}

	weekDay struct {
		Day     int         `json:"day"`
		DayName string      `json:"dayName"`
		Entries []weekEntry `json:"entries"`
	}
)

// week projects the current subjects onto a Sunday-first weekly calendar,
// each day's entries ordered by start time.
func (api *scheduleApi) week(ctx echo.Context) error {
	days := make([]weekDay, 7)
	for d := range days {
		days[d] = weekDay{Day: d, DayName: subject.DayNames[d], Entries: make([]weekEntry, 0)}
	}

	for _, subj := range api.store.Snapshot() {
		for _, slot := range subj.Schedule {
			if slot.Day < 0 || slot.Day > 6 {
				continue
			}
			days[slot.Day].Entries = append(days[slot.Day].Entries, weekEntry{
				SubjectID: subj.ID,
				Name:      subj.Name,
				Color:     subj.Color,
				StartTime: slot.StartTime,
				EndTime:   slot.EndTime,
				Classroom: subj.Classroom,
			})
		}
	}

	for d := range days {
		entries := days[d].Entries
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].StartTime < entries[j].StartTime })
	}
	return ctx.JSON(http.StatusOK, days)
}
