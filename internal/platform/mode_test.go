package platform

import "testing"

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{
		"native": ModeNative,
		"web":    ModeWeb,
	}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", in, err)
		}
		if got != want {
			t.Errorf("ParseMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseMode_Unknown(t *testing.T) {
	if _, err := ParseMode("hybrid"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestIsNative(t *testing.T) {
	if !ModeNative.IsNative() {
		t.Error("native mode should report native")
	}
	if ModeWeb.IsNative() {
		t.Error("web mode should not report native")
	}
}
