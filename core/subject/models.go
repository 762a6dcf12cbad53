package subject

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"

	"github.com/kipiapp/kipi/core"
)

// Week days as stored in Schedule.Day.
const (
	Sunday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DayNames maps Schedule.Day values to display names.
var DayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

type (
	// Schedule is one recurring weekly slot of a Subject. It is a value
	// object: it has no identity of its own and lives embedded in
	// Subject.Schedule.
	Schedule struct {
		Day       int    `json:"day" validate:"min=0,max=6"`
		StartTime string `json:"startTime" validate:"required,hhmm"`
		EndTime   string `json:"endTime" validate:"required,hhmm"`
	}

	Subject struct {
		ID        string     `json:"id"`
		Name      string     `json:"name"`
		Color     string     `json:"color"`
		Schedule  []Schedule `json:"schedule"`
		Classroom string     `json:"classroom,omitempty"`
		Teacher   string     `json:"teacher,omitempty"`
	}

	// Record is the remote-row shape of a Subject: the schedule travels as a
	// serialized string and the owner is carried out-of-band by every call.
	Record struct {
		ID        string `db:"id" json:"id"`
		Name      string `db:"name" json:"name"`
		Color     string `db:"color" json:"color"`
		Schedule  string `db:"schedule" json:"schedule"`
		Classroom string `db:"classroom" json:"classroom"`
		Teacher   string `db:"teacher" json:"teacher"`
	}
)

// NewSubject contains information needed to create a new Subject.
// The remote side assigns the id.
type NewSubject struct {
	Name      string     `json:"name" validate:"required"`
	Color     string     `json:"color" validate:"required,colortoken"`
	Schedule  []Schedule `json:"schedule" validate:"omitempty,dive"`
	Classroom string     `json:"classroom"`
	Teacher   string     `json:"teacher"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Classroom = core.CleanString(ns.Classroom)
	ns.Teacher = core.CleanString(ns.Teacher)
	return validate.Struct(ns)
}

// UpdateSubject is a full-field replacement: every editable field is resent,
// there is no partial patch.
type UpdateSubject struct {
	Name      string     `json:"name" validate:"required"`
	Color     string     `json:"color" validate:"required,colortoken"`
	Schedule  []Schedule `json:"schedule" validate:"omitempty,dive"`
	Classroom string     `json:"classroom"`
	Teacher   string     `json:"teacher"`
}

func (us *UpdateSubject) Validate(validate *validator.Validate) error {
	us.Name = core.CleanString(us.Name)
	us.Classroom = core.CleanString(us.Classroom)
	us.Teacher = core.CleanString(us.Teacher)
	return validate.Struct(us)
}

// EncodeSchedule serializes weekly slots for the remote schedule column.
func EncodeSchedule(entries []Schedule) (string, error) {
	if entries == nil {
		entries = []Schedule{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeSchedule parses a stored schedule column. An empty column is a valid
// empty schedule; malformed data is the caller's cue to fall back to an empty
// schedule rather than fail the whole load.
func DecodeSchedule(raw string) ([]Schedule, error) {
	if raw == "" {
		return []Schedule{}, nil
	}
	var entries []Schedule
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Schedule{}
	}
	return entries, nil
}
