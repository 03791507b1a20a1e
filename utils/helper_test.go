package utils

import "testing"

func TestValidatePhoneNumber(t *testing.T) {
	if err := ValidatePhoneNumber("+12024561111", "US"); err != nil {
		t.Errorf("valid number rejected: %v", err)
	}
	if err := ValidatePhoneNumber("2024561111", "US"); err != nil {
		t.Errorf("valid national number rejected: %v", err)
	}
	if err := ValidatePhoneNumber("123", "US"); err == nil {
		t.Error("expected error for a short invalid number")
	}
}

func TestValidatePhoneNumberDefaultRegion(t *testing.T) {
	// CountryCode is the region partner validation passes through.
	if err := ValidatePhoneNumber("+959421234567", CountryCode); err != nil {
		t.Errorf("valid number rejected for default region: %v", err)
	}
}
