package validate

import (
	"strings"
	"testing"
)

// TestParseServiceAddress tests address parsing and validation
func TestParseServiceAddress(t *testing.T) {
	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{"valid IP address", "127.0.0.1:8443", false},
		{"valid hostname", "grid.example.org:443", false},
		{"empty address", "", true},
		{"missing port", "127.0.0.1", true},
		{"port zero", "127.0.0.1:0", true},
		{"port out of range", "127.0.0.1:70000", true},
		{"non-numeric port", "127.0.0.1:abc", true},
		{"missing host", ":8443", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := ParseServiceAddress(tt.addr)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseServiceAddress(%q) expected error, got %v", tt.addr, addr)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseServiceAddress(%q) unexpected error: %v", tt.addr, err)
			}
		})
	}
}

// TestServiceAddressString tests host:port formatting round trip
func TestServiceAddressString(t *testing.T) {
	addr, err := ParseServiceAddress("grid.example.org:8443")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := addr.String(); got != "grid.example.org:8443" {
		t.Errorf("String() = %q, want %q", got, "grid.example.org:8443")
	}
}

// TestTaskNameFormat tests task name validation rules
func TestTaskNameFormat(t *testing.T) {
	tests := []struct {
		name     string
		taskName string
		wantErr  bool
	}{
		{"simple name", "analysis2026", false},
		{"with hyphen and underscore", "muon_skim-v2", false},
		{"uppercase allowed", "MuonSkim", false},
		{"empty", "", true},
		{"leading hyphen", "-task", true},
		{"trailing underscore", "task_", true},
		{"illegal characters", "task name!", true},
		{"path separator", "task/name", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TaskNameFormat(tt.taskName)
			if tt.wantErr && err == nil {
				t.Errorf("TaskNameFormat(%q) expected error", tt.taskName)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("TaskNameFormat(%q) unexpected error: %v", tt.taskName, err)
			}
		})
	}
}

// TestValidateField tests single-field validation tags
func TestValidateField(t *testing.T) {
	if err := ValidateField(8443, "required,min=1,max=65535"); err != nil {
		t.Errorf("valid port rejected: %v", err)
	}
	if err := ValidateField(0, "required,min=1,max=65535"); err == nil {
		t.Error("port 0 accepted, want error")
	}
	if err := ValidateField("", "required"); err == nil {
		t.Error("empty string accepted for required, want error")
	}
	if err := ValidateField("x", "required"); err != nil {
		t.Errorf("non-empty string rejected: %v", err)
	}
}

// TestTaskNameFormatErrorMessage ensures validation errors name the offending task
func TestTaskNameFormatErrorMessage(t *testing.T) {
	err := TaskNameFormat("bad name")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "bad name") {
		t.Errorf("error %q does not mention the task name", err.Error())
	}
}
