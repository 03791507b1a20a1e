package models_test

import (
	"testing"

	"bitbucket.org/mmdatafocus/erp_backend/models"
)

func TestFormatDocumentNumber(t *testing.T) {
	cases := []struct {
		prefix string
		value  int
		want   string
	}{
		{"VCH", 1, "VCH-000001"},
		{"INV", 42, "INV-000042"},
		{"PO", 999999, "PO-999999"},
		{"SO", 1000000, "SO-1000000"},
	}
	for _, tc := range cases {
		got := models.FormatDocumentNumber(tc.prefix, tc.value)
		if got != tc.want {
			t.Errorf("FormatDocumentNumber(%q, %d) = %q, want %q", tc.prefix, tc.value, got, tc.want)
		}
	}
}

func TestCompositeCursorRoundTrip(t *testing.T) {
	cursor := models.EncodeCompositeCursor("2026-03-15", 77)
	date, id := models.DecodeCompositeCursor(&cursor)
	if date != "2026-03-15" || id != 77 {
		t.Errorf("DecodeCompositeCursor = (%q, %d), want (%q, %d)", date, id, "2026-03-15", 77)
	}
}

func TestDecodeCompositeCursorBadInput(t *testing.T) {
	bad := "not base64 at all!!!"
	date, id := models.DecodeCompositeCursor(&bad)
	if date != "" || id != 0 {
		t.Errorf("DecodeCompositeCursor on garbage = (%q, %d), want empty", date, id)
	}

	date, id = models.DecodeCompositeCursor(nil)
	if date != "" || id != 0 {
		t.Errorf("DecodeCompositeCursor(nil) = (%q, %d), want empty", date, id)
	}
}
