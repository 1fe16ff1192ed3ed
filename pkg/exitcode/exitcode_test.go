/*
Copyright © 2025 3 Leaps <info@3leaps.net>
*/
package exitcode

import (
	"testing"
)

func TestExitCodeConstants(t *testing.T) {
	if Success != 0 {
		t.Errorf("Success = %v, expected 0", Success)
	}
	if GeneralError != 1 {
		t.Errorf("GeneralError = %v, expected 1", GeneralError)
	}
	if ConfigError != 2 {
		t.Errorf("ConfigError = %v, expected 2", ConfigError)
	}
	if ArgumentError != 3 {
		t.Errorf("ArgumentError = %v, expected 3", ArgumentError)
	}
	if StorageError != 4 {
		t.Errorf("StorageError = %v, expected 4", StorageError)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		code     int
		expected string
	}{
		{Success, "Success"},
		{GeneralError, "General error"},
		{ConfigError, "Configuration error"},
		{ArgumentError, "Invalid argument"},
		{StorageError, "Content repository error"},
		{Interrupted, "Interrupted"},
		{42, "Unknown error"},
	}

	for _, test := range tests {
		if got := String(test.code); got != test.expected {
			t.Errorf("String(%d) = %q, expected %q", test.code, got, test.expected)
		}
	}
}
