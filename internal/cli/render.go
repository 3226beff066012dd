package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/mesh-intelligence/nodeflow/pkg/types"
)

var (
	colorHeader = lipgloss.Color("#fe8019")
	colorDim    = lipgloss.Color("#928374")
	colorTitle  = lipgloss.Color("#ebdbb2")
)

var (
	styleHeader  = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleTitle   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	styleSection = lipgloss.NewStyle().Foreground(colorHeader).Underline(true)
)

// processStyle colors text with the process type's own color.
func processStyle(pt types.ProcessType) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(pt.Hex()))
}

// renderTable renders an aligned table with a header separator line.
// Widths are measured on visible text so styled cells line up.
func renderTable(headers []string, rows [][]string) string {
	const colGap = 2

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			widths[i] = max(widths[i], lipgloss.Width(row[i]))
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style func(string) string) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			b.WriteString(style(cell))
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, func(s string) string { return styleHeader.Render(s) })
	total := lo.Sum(widths) + colGap*(len(widths)-1)
	b.WriteString(styleDim.Render(strings.Repeat("─", total)))
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, func(s string) string { return s })
	}
	return b.String()
}

// renderProject renders the human-readable view printed by show and watch.
func renderProject(title string, meta types.ProjectMetadata, snap types.Snapshot) string {
	statuses := lo.KeyBy(snap.ProcessTypes, func(pt types.ProcessType) int64 { return pt.ID })
	nodes := lo.KeyBy(snap.Nodes, func(n types.Node) int64 { return n.ID })

	var b strings.Builder
	b.WriteString(styleTitle.Render(title))
	b.WriteString("\n")
	if meta.Description != "" {
		b.WriteString(meta.Description)
		b.WriteString("\n")
	}
	b.WriteString(styleDim.Render(fmt.Sprintf("created %s, modified %s",
		meta.CreationDate.Format(types.DateLayout), meta.LastModifiedDate.Format(types.DateLayout))))
	b.WriteString("\n\n")

	b.WriteString(styleSection.Render(fmt.Sprintf("Nodes (%d)", len(snap.Nodes))))
	b.WriteString("\n")
	nodeRows := lo.Map(snap.Nodes, func(n types.Node, _ int) []string {
		status := strconv.FormatInt(n.ProcessTypeID, 10)
		if pt, ok := statuses[n.ProcessTypeID]; ok {
			status = processStyle(pt).Render("● " + pt.Name)
		}
		return []string{
			strconv.FormatInt(n.ID, 10),
			n.Title,
			status,
			n.Assignee,
			formatDate(n.Start),
			formatDate(n.End),
			fmt.Sprintf("%g,%g", n.X, n.Y),
		}
	})
	b.WriteString(renderTable([]string{"ID", "TITLE", "STATUS", "ASSIGNEE", "START", "END", "POS"}, nodeRows))
	b.WriteString("\n")

	b.WriteString(styleSection.Render(fmt.Sprintf("Links (%d)", len(snap.Links))))
	b.WriteString("\n")
	linkRows := lo.Map(snap.Links, func(l types.Link, _ int) []string {
		return []string{
			strconv.FormatInt(l.ID, 10),
			endpointLabel(nodes, l.SourceID),
			endpointLabel(nodes, l.TargetID),
		}
	})
	b.WriteString(renderTable([]string{"ID", "SOURCE", "TARGET"}, linkRows))
	b.WriteString("\n")

	b.WriteString(styleSection.Render(fmt.Sprintf("Properties (%d)", len(snap.Properties))))
	b.WriteString("\n")
	propRows := lo.Map(snap.Properties, func(p types.PropertyItem, _ int) []string {
		return []string{strconv.FormatInt(p.ID, 10), p.Name, string(p.Type), p.Value}
	})
	b.WriteString(renderTable([]string{"ID", "NAME", "TYPE", "VALUE"}, propRows))
	return b.String()
}

func endpointLabel(nodes map[int64]types.Node, id int64) string {
	n, ok := nodes[id]
	if !ok || n.Title == "" {
		return fmt.Sprintf("#%d", id)
	}
	return fmt.Sprintf("#%d %s", id, n.Title)
}
