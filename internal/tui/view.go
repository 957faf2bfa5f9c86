package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lehigh-university-libraries/herobanner/internal/slots"
	"github.com/lehigh-university-libraries/herobanner/internal/validate"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#502D0E")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))

	activeTabStyle = tabStyle.
			BorderForeground(lipgloss.Color("#FFD100")).
			Bold(true)

	disabledTabStyle = tabStyle.
				Foreground(lipgloss.Color("240"))

	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFD100")).
			Padding(1, 2)
)

func (p *Panel) View() string {
	if p.quitting {
		return ""
	}

	st := p.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Hero Images (%d/%d)", len(st.Images), validate.MaxImages)))
	b.WriteString("\n\n")
	b.WriteString(renderTabs(st))
	b.WriteString("\n\n")
	b.WriteString(renderSlot(st))
	b.WriteString("\n")

	switch p.modal {
	case modalOpenFile:
		b.WriteString("\n")
		b.WriteString(modalStyle.Render("Image file or URL to upload\n\n" + p.pathInput.View() + "\n\n" + helpStyle.Render("enter select • esc cancel")))
		b.WriteString("\n")
	case modalConfirmDelete:
		name := p.toDelete.Alt
		if name == "" {
			name = p.toDelete.ID
		}
		b.WriteString("\n")
		b.WriteString(modalStyle.Render(fmt.Sprintf("Delete %q?\n\n%s", name, helpStyle.Render("y delete • n keep"))))
		b.WriteString("\n")
	}

	if st.Error != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + st.Error))
		b.WriteString(helpStyle.Render("  (x to dismiss)"))
		b.WriteString("\n")
	}
	if p.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(p.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(p.help(st)))
	b.WriteString("\n")
	return b.String()
}

func renderTabs(st slots.State) string {
	tabs := make([]string, 0, st.DisplayCount)
	for i := 0; i < st.DisplayCount; i++ {
		label := fmt.Sprintf("%d", i+1)
		if st.NewSlot && i == st.DisplayCount-1 {
			label = "+ new"
		}

		style := tabStyle
		switch {
		case i == st.ActiveIndex:
			style = activeTabStyle
		case st.Loading || st.Uploading:
			style = disabledTabStyle
		}
		tabs = append(tabs, style.Render(label))
	}
	if len(tabs) == 0 {
		return labelStyle.Render("No hero images yet")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func renderSlot(st slots.State) string {
	var lines []string

	switch {
	case st.Loading:
		lines = append(lines, labelStyle.Render("Loading..."))
	case st.NewSlot:
		lines = append(lines, "New slot")
	default:
		if img, ok := st.ActiveImage(); ok {
			lines = append(lines,
				labelStyle.Render("Alt: ")+img.Alt,
				labelStyle.Render("URL: ")+img.URL,
			)
		}
	}

	if pv := st.Pending; pv != nil {
		size := fmt.Sprintf("%.1f KiB", float64(pv.Size)/1024)
		line := fmt.Sprintf("Pending: %s (%s, %s", pv.Name, pv.ContentType, size)
		if pv.Width > 0 && pv.Height > 0 {
			line += fmt.Sprintf(", %dx%d", pv.Width, pv.Height)
		}
		line += ")"
		lines = append(lines, "", statusStyle.Render(line), labelStyle.Render("Preview: ")+pv.PreviewURL)
	}
	if st.Uploading {
		lines = append(lines, "", labelStyle.Render("Uploading..."))
	}
	return strings.Join(lines, "\n")
}

func (p *Panel) help(st slots.State) string {
	keys := []string{"←/→ slot"}
	if st.CanAddMore && !st.NewSlot {
		keys = append(keys, "n new")
	}
	if !st.Uploading {
		keys = append(keys, "o open file")
	}
	if st.Pending != nil && !st.Uploading {
		if st.NewSlot {
			keys = append(keys, "enter upload")
		} else {
			keys = append(keys, "enter replace")
		}
		keys = append(keys, "esc cancel")
	}
	if st.CanDelete && !st.Loading && !st.Uploading {
		keys = append(keys, "d delete")
	}
	keys = append(keys, "r refresh")
	if p.logout != nil {
		keys = append(keys, "L logout")
	}
	keys = append(keys, "q quit")
	return strings.Join(keys, " • ")
}
