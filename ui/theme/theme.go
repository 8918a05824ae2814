package theme

// Palette constants and ttk style setup for the preview window.

import (
	tk "modernc.org/tk9.0"
)

// Palette defines core semantic colors used across widgets.
const (
	ColorBg      = "#f7f9fb"
	ColorPrimary = "#2563eb"
	ColorDanger  = "#dc2626"
	ColorAccent  = "#10b981"
	ColorText    = "#1e293b"
)

// PaletteSnapshot represents resolved colors for the active mode.
type PaletteSnapshot struct {
	AppBg   string
	Primary string
	Danger  string
	Accent  string
	Text    string
}

// Style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleStatusLabel   = "status.TLabel"
	StyleStatsLabel    = "stats.TLabel"
)

// Palette returns colors for the given mode.
func Palette(dark bool) PaletteSnapshot {
	if dark {
		return PaletteSnapshot{
			AppBg:   "#0f172a",
			Primary: "#3b82f6",
			Danger:  "#ef4444",
			Accent:  "#10b981",
			Text:    "#f1f5f9",
		}
	}
	return PaletteSnapshot{AppBg: ColorBg, Primary: ColorPrimary, Danger: ColorDanger, Accent: ColorAccent, Text: ColorText}
}

// InitStyles activates the base theme and configures the semantic styles.
func InitStyles(dark bool) {
	p := Palette(dark)
	_ = tk.ActivateTheme("azure light")
	tk.App.Configure(tk.Background(p.AppBg))

	tk.StyleConfigure(StylePrimaryButton,
		tk.Background(p.Primary),
		tk.Foreground("white"),
		tk.Padding("4p 3p"),
		tk.Borderwidth(1),
		tk.Relief("ridge"),
	)
	tk.StyleConfigure(StyleDangerButton,
		tk.Background(p.Danger),
		tk.Foreground("white"),
		tk.Padding("4p 3p"),
		tk.Borderwidth(1),
		tk.Relief("ridge"),
	)
	tk.StyleConfigure(StyleStatusLabel,
		tk.Foreground("white"),
		tk.Background(p.Accent),
		tk.Padding("4p 2p"),
		tk.Borderwidth(1),
		tk.Relief("groove"),
	)
	tk.StyleConfigure(StyleStatsLabel,
		tk.Foreground(p.Text),
		tk.Background(p.AppBg),
		tk.Padding("2p 1p"),
	)
}
