package core

import "testing"

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"production":  Production,
		" Staging ":   Staging,
		"testing":     Testing,
		"development": Development,
		"":            Development,
		"qa":          Development,
	}
	for in, want := range cases {
		if got := ParseEnvironment(in); got != want {
			t.Fatalf("ParseEnvironment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGinMode(t *testing.T) {
	if got := Production.GinMode(); got != "release" {
		t.Fatalf("production gin mode = %q", got)
	}
	if got := Testing.GinMode(); got != "test" {
		t.Fatalf("testing gin mode = %q", got)
	}
	if got := Development.GinMode(); got != "debug" {
		t.Fatalf("development gin mode = %q", got)
	}
}
