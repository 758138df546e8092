package payid

import (
	"errors"
	"testing"
)

func TestFromURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "https url", input: "https://example.com/alice", want: "alice$example.com"},
		{name: "lower-cases user and host", input: "HTTPS://Example.COM/Alice", want: "alice$example.com"},
		{name: "keeps port", input: "http://127.0.0.1:8080/bob", want: "bob$127.0.0.1:8080"},
		{name: "dotted user", input: "https://example.com/john.doe", want: "john.doe$example.com"},
		{name: "rejects ftp", input: "ftp://example.com/alice", wantErr: true},
		{name: "rejects missing scheme", input: "example.com/alice", wantErr: true},
		{name: "rejects empty", input: "  ", wantErr: true},
		{name: "rejects missing user", input: "https://example.com/", wantErr: true},
		{name: "rejects nested path", input: "https://example.com/alice/wallet", wantErr: true},
		{name: "rejects consecutive dots", input: "https://example.com/alice..b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromURL(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got success with %q", got)
				}
				if !errors.Is(err, ErrInvalidPayID) {
					t.Fatalf("expected ErrInvalidPayID, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestToURL(t *testing.T) {
	got, err := ToURL("Alice$Example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/alice" {
		t.Fatalf("unexpected url %q", got)
	}

	for _, bad := range []string{"alice", "$example.com", "alice$"} {
		if _, err := ToURL(bad); !errors.Is(err, ErrInvalidPayID) {
			t.Fatalf("expected %q to be rejected, got %v", bad, err)
		}
	}
}
