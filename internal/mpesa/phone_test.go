package mpesa

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "local format leading zero", in: "0712345678", want: "254712345678"},
		{name: "plus prefix", in: "+254712345678", want: "254712345678"},
		{name: "already canonical", in: "254712345678", want: "254712345678"},
		{name: "surrounding whitespace", in: "  0712345678 ", want: "254712345678"},
		{name: "unknown prefix", in: "1712345678", wantErr: true},
		{name: "uk number", in: "+447123456789", wantErr: true},
		{name: "too short after rewrite", in: "071234567", wantErr: true},
		{name: "too long after rewrite", in: "07123456789", wantErr: true},
		{name: "bare 254 too short", in: "25471234567", wantErr: true},
		{name: "empty", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NormalizePhone(%q) = %q, want error", tt.in, got)
				}
				if !errors.Is(err, ErrInvalidPhone) {
					t.Fatalf("NormalizePhone(%q) error = %v, want ErrInvalidPhone", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if len(got) != 12 {
				t.Fatalf("NormalizePhone(%q) length = %d, want 12", tt.in, len(got))
			}
		})
	}
}
