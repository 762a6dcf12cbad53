package note

import (
	"github.com/go-playground/validator/v10"

	"github.com/kipiapp/kipi/core"
)

type (
	// Note is one Cornell-method class note. Cues, Notes and Summary are the
	// three sections of the method; Attendance flags whether the class was
	// attended. Optional text fields are always concrete strings so
	// presentation code can slice and concatenate them safely.
	Note struct {
		ID         string `json:"id"`
		SubjectID  string `json:"subjectId"`
		Title      string `json:"title"`
		Date       string `json:"date"` // YYYY-MM-DD
		Cues       string `json:"cues"`
		Notes      string `json:"notes"`
		Summary    string `json:"summary"`
		Attendance bool   `json:"attendance"`
	}

	// Record is the remote-row shape of a Note; the owner is carried
	// out-of-band by every call.
	Record struct {
		ID         string `db:"id" json:"id"`
		SubjectID  string `db:"subject_id" json:"subject_id"`
		Title      string `db:"title" json:"title"`
		Date       string `db:"date" json:"date"`
		Cues       string `db:"cues" json:"cues"`
		Notes      string `db:"notes" json:"notes"`
		Summary    string `db:"summary" json:"summary"`
		Attendance bool   `db:"attendance" json:"attendance"`
	}
)

// NewNote contains information needed to create a new Note.
// The remote side assigns the id.
type NewNote struct {
	SubjectID  string `json:"subjectId" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Date       string `json:"date" validate:"required,dateymd"`
	Cues       string `json:"cues"`
	Notes      string `json:"notes"`
	Summary    string `json:"summary"`
	Attendance bool   `json:"attendance"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	return validate.Struct(nn)
}

// UpdateNote is a full-field replacement: every editable field is resent,
// there is no partial patch.
type UpdateNote struct {
	SubjectID  string `json:"subjectId" validate:"required"`
	Title      string `json:"title" validate:"required"`
	Date       string `json:"date" validate:"required,dateymd"`
	Cues       string `json:"cues"`
	Notes      string `json:"notes"`
	Summary    string `json:"summary"`
	Attendance bool   `json:"attendance"`
}

func (un *UpdateNote) Validate(validate *validator.Validate) error {
	un.Title = core.CleanString(un.Title)
	return validate.Struct(un)
}
