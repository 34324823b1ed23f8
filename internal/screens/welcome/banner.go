package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/swiftcourse/swiftcourse/internal/ui/theme"
)

const bannerArt = `
 ███████╗██╗    ██╗██╗███████╗████████╗
 ██╔════╝██║    ██║██║██╔════╝╚══██╔══╝
 ███████╗██║ █╗ ██║██║█████╗     ██║
 ╚════██║██║███╗██║██║██╔══╝     ██║
 ███████║╚███╔███╔╝██║██║        ██║
 ╚══════╝ ╚══╝╚══╝ ╚═╝╚═╝        ╚═╝
          C  O  U  R  S  E`

const bannerCompact = "S W I F T C O U R S E"

// RenderBanner returns the banner in the primary color, falling back to a
// single line below 42 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 42 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
