package navigation

// NarrowViewportWidth is the CSS pixel width below which the sidebar
// behaves as an overlay and closes after navigating.
const NarrowViewportWidth = 768

// IsNarrow reports whether a reported viewport width is narrow.
// Unknown widths (<= 0) are treated as wide.
func IsNarrow(width int) bool {
	return width > 0 && width < NarrowViewportWidth
}

// NextSidebarOpen computes the panel state after a navigation action.
// Narrow viewports force-close the panel; otherwise the state is unchanged.
func NextSidebarOpen(open bool, viewportWidth int) bool {
	if IsNarrow(viewportWidth) {
		return false
	}
	return open
}
