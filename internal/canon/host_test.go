package canon

import "testing"

func TestCanonicalizeHost(t *testing.T) {
	cases := map[string]string{
		"API.Example.com.":  "api.example.com",
		"  api.example.com": "api.example.com",
		"api.example.com:443": "api.example.com",
		"[::1]:8080":         "[::1]",
		"localhost":          "localhost",
	}
	for in, want := range cases {
		if got := CanonicalizeHost(in); got != want {
			t.Errorf("CanonicalizeHost(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestETLDPlus1(t *testing.T) {
	cases := map[string]string{
		"api.example.com":   "example.com",
		"sub.api.github.io": "api.github.io", // github.io is itself a public suffix entry
		"localhost":         "localhost",
		"10.0.0.1":          "10.0.0.1",
		"example.com":       "example.com",
	}
	for in, want := range cases {
		if got := ETLDPlus1(in); got != want {
			t.Errorf("ETLDPlus1(%q) = %q, want %q", in, got, want)
		}
	}
}
