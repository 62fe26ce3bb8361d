package draws

import (
	"strconv"
	"strings"
)

type drawPayload struct {
	DrawID    flexString     `json:"draw_id"`
	Date      string         `json:"date"`
	Numbers   []flexInt      `json:"numbers"`
	Stars     []flexInt      `json:"stars"`
	HasWinner bool           `json:"has_winner"`
	Prizes    []prizePayload `json:"prizes"`
}

type prizePayload struct {
	MatchedNumbers flexInt   `json:"matched_numbers"`
	MatchedStars   flexInt   `json:"matched_stars"`
	Prize          flexFloat `json:"prize"`
	Winners        flexInt   `json:"winners"`
}

// The provider has shipped numbers both as JSON strings ("07") and as
// numbers, so every numeric field accepts either form.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	s := unquote(b)
	if s == "null" {
		s = ""
	}
	*f = flexString(s)
	return nil
}

func unquote(b []byte) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(string(b)), `"`))
}

func toInts(values []flexInt) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}
