package driver

import (
	"errors"
	"testing"
)

func TestParseLocator(t *testing.T) {
	tests := []struct {
		in   string
		want Locator
	}{
		// Explicit strategy prefixes.
		{"css=.result", Locator{ByCSS, ".result"}},
		{"id=query", Locator{ByID, "query"}},
		{"xpath=//a[1]", Locator{ByXPath, "//a[1]"}},
		{"css=a[href=foo]", Locator{ByCSS, "a[href=foo]"}},

		// Inference.
		{"//form/input", Locator{ByXPath, "//form/input"}},
		{"#result", Locator{ByCSS, "#result"}},
		{"div.clock > span", Locator{ByCSS, "div.clock > span"}},
		{"input[name=q]", Locator{ByCSS, "input[name=q]"}},
		{"query", Locator{ByID, "query"}},

		// Unknown prefixes fall through to inference; "name=q" has no CSS
		// metacharacter before the cut, so the whole string is inspected.
		{"name=q", Locator{ByID, "name=q"}},

		// Surrounding whitespace is ignored.
		{"  id=query  ", Locator{ByID, "query"}},
	}

	for _, tt := range tests {
		got, err := ParseLocator(tt.in)
		if err != nil {
			t.Errorf("ParseLocator(%q): %v", tt.in, err)

			continue
		}

		if got != tt.want {
			t.Errorf("ParseLocator(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLocatorEmpty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		if _, err := ParseLocator(in); !errors.Is(err, ErrEmptyLocator) {
			t.Errorf("ParseLocator(%q) = %v, want ErrEmptyLocator", in, err)
		}
	}
}

func TestLocatorString(t *testing.T) {
	loc := Locator{Strategy: ByCSS, Value: "#result"}
	if got := loc.String(); got != "css=#result" {
		t.Errorf("String() = %q, want %q", got, "css=#result")
	}
}

func TestRegistry(t *testing.T) {
	Register("fake", func(cfg any) (Session, error) {
		return nil, nil
	})

	if _, err := New("fake", nil); err != nil {
		t.Fatalf("New(fake): %v", err)
	}

	if _, err := New("missing", nil); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("New(missing) = %v, want ErrUnknownBackend", err)
	}

	found := false

	for _, name := range Registered() {
		if name == "fake" {
			found = true
		}
	}

	if !found {
		t.Errorf("Registered() = %v, want to contain fake", Registered())
	}
}
