package ui

import "github.com/charmbracelet/lipgloss"

// Colors used in the application.
var (
	colorPrimary   = lipgloss.Color("62")  // Purple
	colorSecondary = lipgloss.Color("241") // Gray
	colorMuted     = lipgloss.Color("240") // Darker gray
	colorHighlight = lipgloss.Color("212") // Pink
	colorSuccess   = lipgloss.Color("78")  // Green
)

// TitleStyle for the artwork title.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("255"))

// AuthorStyle for the author and date line.
var AuthorStyle = lipgloss.NewStyle().
	Foreground(colorHighlight)

// MediumStyle for the medium line.
var MediumStyle = lipgloss.NewStyle().
	Foreground(colorSecondary).
	Italic(true)

// DescriptionStyle for the wrapped description.
var DescriptionStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("252"))

// ImageFrame is the placeholder box where the image sits.
var ImageFrame = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Foreground(colorSecondary).
	Align(lipgloss.Center, lipgloss.Center)

// ImageFrameLoading is the frame while the image is still loading.
var ImageFrameLoading = ImageFrame.
	BorderForeground(colorMuted).
	Foreground(colorMuted)

// StatusBar style for the bottom status bar.
var StatusBar = lipgloss.NewStyle().
	Foreground(lipgloss.Color("255")).
	Background(lipgloss.Color("236")).
	Padding(0, 1)

// StatusBarKey style for key hints in status bar.
var StatusBarKey = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)

// StatusBarText style for descriptive text in status bar.
var StatusBarText = lipgloss.NewStyle().
	Foreground(colorSecondary)

// ModeBadge style for the browsing mode label.
var ModeBadge = lipgloss.NewStyle().
	Foreground(colorSuccess).
	Bold(true)

// ErrorStyle for displaying errors.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("196")).
	Bold(true).
	Padding(0, 1)

// EmptyStyle for the centered message shown before any slide exists.
var EmptyStyle = lipgloss.NewStyle().
	Foreground(colorMuted)

// DebugPanel wraps the event overlay.
var DebugPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorPrimary).
	Padding(1, 2)

// DebugHeaderStyle for section headers inside the overlay.
var DebugHeaderStyle = lipgloss.NewStyle().
	Foreground(colorHighlight).
	Bold(true)
