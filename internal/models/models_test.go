package models

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckInRequestValidate(t *testing.T) {
	tests := []struct {
		name string
		req  CheckInRequest
		want error
	}{
		{"valid", CheckInRequest{Moods: map[string]string{"today": "joyful"}}, nil},
		{"valid with reflections", CheckInRequest{
			Moods:       map[string]string{"today": "sad", "week": "tired"},
			Reflections: map[string]string{"today": "long day"},
		}, nil},
		{"unknown emotion accepted", CheckInRequest{Moods: map[string]string{"today": "bewildered"}}, nil},
		{"no moods", CheckInRequest{}, ErrNoMoods},
		{"blank period", CheckInRequest{Moods: map[string]string{"  ": "calm"}}, ErrEmptyPeriod},
		{"long period", CheckInRequest{Moods: map[string]string{strings.Repeat("p", MaxPeriodLength+1): "calm"}}, ErrPeriodTooLong},
		{"blank emotion", CheckInRequest{Moods: map[string]string{"today": " "}}, ErrEmptyEmotion},
		{"long reflection", CheckInRequest{
			Moods:       map[string]string{"today": "calm"},
			Reflections: map[string]string{"today": strings.Repeat("x", MaxReflectionLength+1)},
		}, ErrReflectionTooLong},
		{"reflection blank period", CheckInRequest{
			Moods:       map[string]string{"today": "calm"},
			Reflections: map[string]string{"": "hello"},
		}, ErrEmptyPeriod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCheckInRequestValidate_TooManyMoods(t *testing.T) {
	req := CheckInRequest{Moods: map[string]string{}}
	for i := 0; i <= MaxObservationsCount; i++ {
		req.Moods[strings.Repeat("p", i+1)] = "calm"
	}
	if err := req.Validate(); !errors.Is(err, ErrTooManyMoods) {
		t.Errorf("Validate() = %v, want %v", err, ErrTooManyMoods)
	}
}

func TestAPIResponseHelpers(t *testing.T) {
	if r := Success(1); r.Status != "ok" || r.Result != 1 {
		t.Errorf("Success() = %+v", r)
	}
	if r := Recorded("x"); r.Status != "recorded" || r.Result != "x" {
		t.Errorf("Recorded() = %+v", r)
	}
	if r := Error("boom"); r.Status != "error" || r.Message != "boom" || r.Result != nil {
		t.Errorf("Error() = %+v", r)
	}
}
