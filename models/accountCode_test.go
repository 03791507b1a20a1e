package models

import "testing"

func TestNextCodeInSequence(t *testing.T) {
	cases := []struct {
		subgroup string
		last     string
		want     string
	}{
		{"12", "", "1201"},
		{"12", "1201", "1202"},
		{"12", "1299", "12100"},
		{"12", "12100", "12101"},
		{"11", "1105", "1106"},
	}
	for _, tc := range cases {
		got, err := nextCodeInSequence(tc.subgroup, tc.last)
		if err != nil {
			t.Errorf("nextCodeInSequence(%q, %q) error: %v", tc.subgroup, tc.last, err)
			continue
		}
		if got != tc.want {
			t.Errorf("nextCodeInSequence(%q, %q) = %q, want %q", tc.subgroup, tc.last, got, tc.want)
		}
	}
}

func TestNextCodeInSequenceRejectsForeignCode(t *testing.T) {
	if _, err := nextCodeInSequence("12", "abc"); err == nil {
		t.Error("expected error for a code outside the subgroup sequence")
	}
}
