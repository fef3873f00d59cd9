package config

import "testing"

func TestNormalizeOrigins(t *testing.T) {
	got := normalizeOrigins(" http://a.test , http://b.test,http://c.test ")
	want := "http://a.test,http://b.test,http://c.test"
	if got != want {
		t.Fatalf("normalizeOrigins = %q, want %q", got, want)
	}
}

func TestGetenvFallback(t *testing.T) {
	t.Setenv("HACKATHON_TEST_VAR", "")
	if got := getenv("HACKATHON_TEST_VAR", "dflt"); got != "dflt" {
		t.Fatalf("getenv = %q, want fallback", got)
	}
	t.Setenv("HACKATHON_TEST_VAR", "set")
	if got := getenv("HACKATHON_TEST_VAR", "dflt"); got != "set" {
		t.Fatalf("getenv = %q, want set", got)
	}
}

func TestLoadEnvTimezone(t *testing.T) {
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	LoadEnv()
	if Location.String() != "Europe/Berlin" {
		t.Fatalf("Location = %s, want Europe/Berlin", Location)
	}
	if Env.AppPort == "" {
		t.Fatal("AppPort should default")
	}
}
