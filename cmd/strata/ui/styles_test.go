package ui

import "testing"

func TestDetectTheme(t *testing.T) {
	t.Setenv("COLORFGBG", "")

	t.Setenv("STRATA_DARK_MODE", "1")
	if theme := DetectTheme(); !theme.IsDark {
		t.Error("expected dark theme when STRATA_DARK_MODE=1")
	}

	t.Setenv("STRATA_DARK_MODE", "")
	if theme := DetectTheme(); theme.IsDark {
		t.Error("expected light theme by default")
	}
}

func TestDetectThemeColorFgBg(t *testing.T) {
	t.Setenv("STRATA_DARK_MODE", "")

	t.Setenv("COLORFGBG", "15;0")
	if theme := DetectTheme(); !theme.IsDark {
		t.Error("expected dark theme for black background")
	}

	t.Setenv("COLORFGBG", "0;15")
	if theme := DetectTheme(); theme.IsDark {
		t.Error("expected light theme for white background")
	}
}

func TestDetectThemeExplicitOverridesTerminal(t *testing.T) {
	t.Setenv("COLORFGBG", "15;0")
	t.Setenv("STRATA_DARK_MODE", "0")
	if theme := DetectTheme(); theme.IsDark {
		t.Error("expected STRATA_DARK_MODE=0 to win over COLORFGBG")
	}
}

func TestRenderDivider(t *testing.T) {
	styles := NewStyles(LightTheme())
	if got := styles.RenderDivider(0); got == "" {
		t.Error("divider should never be empty")
	}
}
