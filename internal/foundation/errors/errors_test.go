package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "astro.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "astro.yaml" {
			t.Errorf("expected context file=astro.yaml, got %v", file)
		}
	})

	t.Run("Config errors are fatal and never rerunnable", func(t *testing.T) {
		err := ConfigError("cyclic dependency").Build()

		if !IsClassified(err) {
			t.Error("expected error to be classified")
		}
		if !HasCategory(err, CategoryConfig) {
			t.Error("expected error to have config category")
		}
		if err.CanRerun() {
			t.Error("expected config error to not be rerunnable")
		}
		if !err.IsFatal() {
			t.Error("expected config error to be fatal")
		}
	})

	t.Run("Component and check are part of the message", func(t *testing.T) {
		err := InstallError("topcat", "download failed").Check("fetch-jar").Build()

		if err.Component() != "topcat" {
			t.Errorf("expected component topcat, got %q", err.Component())
		}
		if err.Check() != "fetch-jar" {
			t.Errorf("expected check fetch-jar, got %q", err.Check())
		}
		if got := err.Error(); got != "[install:topcat] download failed" {
			t.Errorf("unexpected Error(): %q", got)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Wrapping keeps the cause reachable", func(t *testing.T) {
		original := errors.New("connection reset")
		err := WrapError(original, CategoryFetch, "download failed").
			Rerunnable().
			WithContext(KeyURL, "https://example.invalid/topcat.jar").
			Build()

		if !errors.Is(err, original) {
			t.Error("expected errors.Is to find the original error")
		}
		if !err.CanRerun() {
			t.Error("expected fetch error to be rerunnable")
		}
		if url, _ := err.Context().GetString(KeyURL); url == "" {
			t.Error("expected url context")
		}
	})

	t.Run("WithContext returns a copy", func(t *testing.T) {
		base := VerifyError("core", "import failed").Build()
		derived := base.WithContext(KeyCheck, "import:numpy")

		if base.Check() != "" {
			t.Errorf("base error was mutated: %q", base.Check())
		}
		if derived.Check() != "import:numpy" {
			t.Errorf("expected derived check, got %q", derived.Check())
		}
	})
}

func TestAsClassifiedFollowsWrapChain(t *testing.T) {
	inner := LaunchError("lab", "jupyter missing").Check("executable").Build()
	wrapped := fmt.Errorf("launch lab: %w", inner)

	classified, ok := AsClassified(wrapped)
	if !ok {
		t.Fatal("expected to find classified error in chain")
	}
	if classified.Component() != "lab" {
		t.Errorf("expected component lab, got %q", classified.Component())
	}
	if got := CheckOf(wrapped, "fallback"); got != "executable" {
		t.Errorf("CheckOf() = %q", got)
	}
	if got := CheckOf(errors.New("plain"), "fallback"); got != "fallback" {
		t.Errorf("CheckOf() on plain error = %q", got)
	}
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "shared": "a"}
	b := ErrorContext{"b": 2, "shared": "b"}

	merged := a.Merge(b)
	if merged["shared"] != "b" {
		t.Errorf("expected other to take precedence, got %v", merged["shared"])
	}
	if len(merged) != 3 {
		t.Errorf("expected 3 keys, got %d", len(merged))
	}
	if a["shared"] != "a" {
		t.Error("merge must not mutate the receiver")
	}
}
