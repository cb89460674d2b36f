package redact

import "testing"

func TestTokens(t *testing.T) {
	const tok = "AAAQEAYEAUDAOCAJBIFQYDIOB4IBCEQTCQKRMFYYDENBWHA5DYPQ"
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"path", "/api/hardware/reservations/" + tok, "/api/hardware/reservations/[token]"},
		{"lowercase", "token " + "aaaqeayeaudaocajbifqydiob4ibceqtcqkrmfyydenbwha5dypq", "token [token]"},
		{"json body", `{"token":"` + tok + `"}`, `{"token":"[token]"}`},
		{"short", "/api/hardware/items/12", "/api/hardware/items/12"},
		{"longer run untouched", tok + "A", tok + "A"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Tokens(tt.in); got != tt.want {
				t.Errorf("Tokens(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
