package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/kipiapp/kipi/core/subject"
)

func Test_scheduleApi_week(t *testing.T) {
	app := setup(t)
	token := getToken(t, "student1")

	t.Run("Auth required", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/api/v1/schedule/week")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	math := createSubject(t, app, token, subject.NewSubject{
		Name:  "Mathematics",
		Color: "#6b4eff",
		Schedule: []subject.Schedule{
			{Day: subject.Monday, StartTime: "10:15", EndTime: "11:45"},
			{Day: subject.Thursday, StartTime: "08:30", EndTime: "10:00"},
		},
	})
	history := createSubject(t, app, token, subject.NewSubject{
		Name:  "History",
		Color: "amber",
		Schedule: []subject.Schedule{
			{Day: subject.Monday, StartTime: "08:30", EndTime: "10:00"},
		},
	})

	req, rec := newAuthRequest(http.MethodGet, "/api/v1/schedule/week", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %v, body = %v", rec.Code, rec.Body.String())
	}

	var days []struct {
		Day     int    `json:"day"`
		DayName string `json:"dayName"`
		Entries []struct {
			SubjectID string `json:"subjectId"`
			StartTime string `json:"startTime"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &days); err != nil {
		t.Fatal(err)
	}

	if len(days) != 7 {
		t.Fatalf("week has %d days", len(days))
	}
	if days[0].Day != 0 || days[0].DayName != "Sunday" {
		t.Errorf("week starts with %d %q, want 0 Sunday", days[0].Day, days[0].DayName)
	}

	// Monday carries both subjects, ordered by start time
	monday := days[subject.Monday]
	if len(monday.Entries) != 2 {
		t.Fatalf("Monday has %d entries, want 2", len(monday.Entries))
	}
	if monday.Entries[0].SubjectID != history.ID || monday.Entries[1].SubjectID != math.ID {
		t.Errorf("Monday order = %v, want History (08:30) before Mathematics (10:15)", monday.Entries)
	}

	// Thursday carries the single math slot
	if got := days[subject.Thursday].Entries; len(got) != 1 || got[0].SubjectID != math.ID {
		t.Errorf("Thursday entries = %v", got)
	}

	// a free day has an empty entries array, not null
	if days[subject.Saturday].Entries == nil {
		t.Error("Saturday entries = null, want []")
	}
}
