package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/tilelens/backend/internal/domain"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	dimColor    = color.New(color.Faint)
	highScore   = color.New(color.FgGreen)
	midScore    = color.New(color.FgYellow)
	lowScore    = color.New(color.FgRed)
)

// printPage writes one page of results followed by the pagination window
func printPage(w io.Writer, session *domain.SearchSession, page *domain.ProjectedPage) {
	headerColor.Fprintf(w, "%s search %q: %d matches\n", session.Kind, session.Query, page.TotalCount)

	if len(page.Items) == 0 {
		dimColor.Fprintln(w, "No products found.")
		return
	}

	offset := (page.Page - 1) * page.PageSize
	for i, item := range page.Items {
		name := item.Filename
		if title := item.Attributes["title"]; title != "" {
			name = title
		}
		fmt.Fprintf(w, "%3d. ", offset+i+1)
		scoreColor(item.Score).Fprintf(w, "%.3f", item.Score)
		fmt.Fprintf(w, "  %s\n", name)
		dimColor.Fprintf(w, "      %s\n", item.URL)
		if attrs := formatAttributes(item.Attributes); attrs != "" {
			dimColor.Fprintf(w, "      %s\n", attrs)
		}
	}

	fmt.Fprintf(w, "Page %d of %d  %s\n", page.Page, page.TotalPages, formatWindow(page.Pages, page.Page))
}

func scoreColor(score float64) *color.Color {
	switch {
	case score >= 0.7:
		return highScore
	case score >= 0.4:
		return midScore
	}
	return lowScore
}

// formatAttributes renders attributes as sorted key=value pairs, skipping the title
func formatAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		if k != "title" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + attrs[k]
	}
	return strings.Join(parts, " ")
}

// formatWindow renders page buttons, bracketing the current page; 0 becomes "..."
func formatWindow(pages []int, current int) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		switch p {
		case 0:
			parts[i] = "..."
		case current:
			parts[i] = "[" + strconv.Itoa(p) + "]"
		default:
			parts[i] = strconv.Itoa(p)
		}
	}
	return strings.Join(parts, " ")
}
