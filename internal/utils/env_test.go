package utils

import (
	"os"
	"testing"
)

func TestSafeEnv(t *testing.T) {
	const key = "_INTAKE_TEST_SAFEENV"
	os.Unsetenv(key)
	if got := SafeEnv(key, "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	os.Setenv(key, "value")
	defer os.Unsetenv(key)
	if got := SafeEnv(key, "fallback"); got != "value" {
		t.Fatalf("expected 'value', got %q", got)
	}
}

func TestEnvInt(t *testing.T) {
	const key = "_INTAKE_TEST_ENVINT"
	os.Unsetenv(key)
	if got := EnvInt(key, 25); got != 25 {
		t.Fatalf("expected fallback 25, got %d", got)
	}
	os.Setenv(key, "587")
	defer os.Unsetenv(key)
	if got := EnvInt(key, 25); got != 587 {
		t.Fatalf("expected 587, got %d", got)
	}
	os.Setenv(key, "nope")
	if got := EnvInt(key, 25); got != 25 {
		t.Fatalf("expected fallback on junk, got %d", got)
	}
}
