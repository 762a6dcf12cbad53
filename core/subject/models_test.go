package subject

import (
	"reflect"
	"testing"
)

func TestScheduleRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries []Schedule
	}{
		{name: "empty", entries: []Schedule{}},
		{name: "single slot", entries: []Schedule{{Day: Monday, StartTime: "08:30", EndTime: "10:00"}}},
		{name: "multiple weekly slots", entries: []Schedule{
			{Day: Sunday, StartTime: "00:00", EndTime: "01:00"},
			{Day: Wednesday, StartTime: "14:15", EndTime: "15:45"},
			{Day: Saturday, StartTime: "22:00", EndTime: "23:59"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeSchedule(tt.entries)
			if err != nil {
				t.Fatalf("EncodeSchedule() error = %v", err)
			}
			got, err := DecodeSchedule(raw)
			if err != nil {
				t.Fatalf("DecodeSchedule() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.entries) {
				t.Errorf("round trip = %v, want %v", got, tt.entries)
			}
		})
	}
}

func TestDecodeSchedule(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []Schedule
		wantErr bool
	}{
		{name: "empty column", raw: "", want: []Schedule{}},
		{name: "null column", raw: "null", want: []Schedule{}},
		{name: "empty array", raw: "[]", want: []Schedule{}},
		{name: "valid", raw: `[{"day":1,"startTime":"08:30","endTime":"10:00"}]`,
			want: []Schedule{{Day: Monday, StartTime: "08:30", EndTime: "10:00"}}},
		{name: "truncated payload", raw: `[{"day":1,"startTime":"08`, wantErr: true},
		{name: "wrong shape", raw: `{"day":1}`, wantErr: true},
		{name: "garbage", raw: "lol nope", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSchedule(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeSchedule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DecodeSchedule() = %v, want %v", got, tt.want)
			}
		})
	}
}
