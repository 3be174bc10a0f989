package token

import (
	"encoding/base64"
	"testing"
)

func TestGenerateWithLength(t *testing.T) {
	tests := []struct {
		name    string
		length  int
		wantLen int
		wantErr bool
	}{
		{"default", DefaultLength, 43, false},
		{"request id", 12, 16, false},
		{"zero", 0, 0, true},
		{"negative", -1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := GenerateWithLength(tt.length)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GenerateWithLength(%d) error = %v", tt.length, err)
			}
			if tt.wantErr {
				return
			}
			if len(tok) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(tok), tt.wantLen)
			}
			raw, err := base64.RawURLEncoding.DecodeString(tok)
			if err != nil || len(raw) != tt.length {
				t.Errorf("decoded %d bytes, err %v", len(raw), err)
			}
		})
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := Generate()
		if err != nil {
			t.Fatal(err)
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}

func TestHash(t *testing.T) {
	const want = "afdbf99cd2ad3f8574442283f2671d5dbcbacaf1135b294de0390b3729c518be"
	if got := Hash("reset-me"); got != want {
		t.Errorf("Hash() = %s, want %s", got, want)
	}
	if Hash("reset-me") == Hash("reset-me2") {
		t.Error("Hash() collides on different input")
	}
}
