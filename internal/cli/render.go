// Package cli renders reservation data for terminal output.
package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/example/room-reservations/internal/application"
	"github.com/example/room-reservations/internal/booking"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginBottom(1)

	slotStyle = lipgloss.NewStyle().Width(13)

	stateStyles = map[booking.SlotState]lipgloss.Style{
		booking.SlotAvailable: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		booking.SlotOccupied:  lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		booking.SlotOwn:       lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true),
	}

	stateLabels = map[booking.SlotState]string{
		booking.SlotAvailable: "disponible",
		booking.SlotOccupied:  "ocupado",
		booking.SlotOwn:       "propia",
	}

	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

// RenderAvailability draws the slot grid of one room on one day.
func RenderAvailability(roomName string, date booking.Date, availability booking.Availability) string {
	var rows []string
	for _, slot := range availability.Slots() {
		state := stateStyles[slot.State].Render(stateLabels[slot.State])
		line := slotStyle.Render(slot.Block.String()) + state
		if slot.Record != nil {
			line += mutedStyle.Render("  " + slot.Record.OwnerName + " · " + slot.Record.Purpose)
		}
		rows = append(rows, line)
	}
	if len(rows) == 0 {
		rows = append(rows, mutedStyle.Render("sin bloques configurados"))
	}

	summary := fmt.Sprintf("%d de %d bloques disponibles", availability.Count(booking.SlotAvailable), len(availability.Slots()))
	body := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s · %s", roomName, date)),
		strings.Join(rows, "\n"),
		"",
		mutedStyle.Render(summary),
	)
	return boxStyle.Render(body)
}

// RenderEntries lists consolidated entries one per line.
func RenderEntries(title string, entries []application.AnnotatedEntry) string {
	lines := []string{titleStyle.Render(title)}
	if len(entries) == 0 {
		lines = append(lines, mutedStyle.Render("sin reservas"))
	}
	for _, e := range entries {
		first := e.Entry.First()
		line := fmt.Sprintf("%s  %s  %-20s  %s", first.Date, slotStyle.Render(e.Entry.Block().String()), first.RoomName, e.Entry.Purpose())
		if e.Permissions.CanCancel {
			line += mutedStyle.Render("  [cancelable]")
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// RenderRange prints a resolved date range.
func RenderRange(name booking.RangeName, window booking.DateRange) string {
	return fmt.Sprintf("%s  %s → %s  (%d días)",
		titleStyle.UnsetMarginBottom().Render(string(name)), window.Start, window.End, window.Days())
}

// RenderOverview draws the administrator statistics.
func RenderOverview(month booking.Date, overview application.Overview) string {
	lines := []string{
		titleStyle.Render("Estadísticas " + month.FirstOfMonth().String()[:7]),
		fmt.Sprintf("Reservas hoy:      %d", overview.Today),
		fmt.Sprintf("Reservas del mes:  %d", overview.Month),
		fmt.Sprintf("Tasa de no-show:   %.1f%%", overview.NoShowRate),
	}
	if len(overview.TopRooms) > 0 {
		lines = append(lines, "", "Salas más usadas:")
		for i, rc := range overview.TopRooms {
			lines = append(lines, fmt.Sprintf("  %d. %s (%s): %d", i+1, rc.RoomName, rc.BuildingName, rc.Count))
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
