package sms

import (
	"errors"
	"testing"
)

func TestCanonicalPhone(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "already E.164",
			raw:  "+15551234567",
			want: "+15551234567",
		},
		{
			name: "ten digit US number",
			raw:  "5551234567",
			want: "+15551234567",
		},
		{
			name: "eleven digits with leading one",
			raw:  "15551234567",
			want: "+15551234567",
		},
		{
			name: "formatted US number",
			raw:  "(555) 123-4567",
			want: "+15551234567",
		},
		{
			name: "dotted with country code",
			raw:  "+1 555.123.4567",
			want: "+15551234567",
		},
		{
			name: "international number",
			raw:  "+442071838750",
			want: "+442071838750",
		},
		{
			name:    "empty",
			raw:     "",
			wantErr: true,
		},
		{
			name:    "too short",
			raw:     "12345",
			wantErr: true,
		},
		{
			name:    "letters rejected",
			raw:     "555-CALL-NOW",
			wantErr: true,
		},
		{
			name:    "eleven digits without leading one",
			raw:     "25551234567",
			wantErr: true,
		},
		{
			name:    "plus with too many digits",
			raw:     "+1234567890123456",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalPhone(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidPhoneNumber) {
					t.Fatalf("got err %v, want ErrInvalidPhoneNumber", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CanonicalPhone(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("CanonicalPhone(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
