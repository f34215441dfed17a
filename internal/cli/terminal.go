package cli

import (
	"slices"
	"strings"

	"github.com/bastiangx/fillserve/internal/utils"
	"github.com/bastiangx/fillserve/pkg/field"
	"github.com/bastiangx/fillserve/pkg/sequence"
	"github.com/charmbracelet/lipgloss"
)

var valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))

const helpText = `commands:
  classify key=value ...           name id class test_id automation_id autocomplete type placeholder aria_label
  observe <type> <value> [t=v ...] learn a value, optionally with related field values
  suggest <type> [t=v ...]         ranked values for a field
  predict <type>                   next value after the most recent one
  complete <type> <prefix> [n]     learned values starting with prefix
  known | last | stats | refresh
  quit`

func (h *InputHandler) printHelp() {
	h.out.Print(helpText)
	types := make([]string, 0, len(field.All))
	for _, t := range field.All {
		types = append(types, t.String())
	}
	h.out.Print("types: " + strings.Join(types, " "))
}

func (h *InputHandler) printValues(what string, values []string) {
	if len(values) == 0 {
		h.out.Warnf("No %s yet", what)
		return
	}
	h.out.Printf("%d %s:", len(values), what)
	for i, v := range values {
		h.out.Printf("%2d. %s", i+1, valueStyle.Render(v))
	}
}

func (h *InputHandler) printCompletions(prefix string, completions []sequence.Completion) {
	if len(completions) == 0 {
		h.out.Warnf("No completions for prefix: '%s'", prefix)
		return
	}
	h.out.Printf("Found %d completions for prefix '%s':", len(completions), prefix)
	for i, c := range completions {
		h.out.Printf("%2d. %-40s (seen: %6s)", i+1, valueStyle.Render(c.Value), utils.FormatWithCommas(c.Count))
	}
}

func (h *InputHandler) printKnown(known map[field.Type][]string) {
	if len(known) == 0 {
		h.out.Warn("Nothing learned yet")
		return
	}
	for _, t := range field.All {
		if values, ok := known[t]; ok {
			h.out.Printf("%-10s %s", t, strings.Join(values, ", "))
		}
	}
}

func (h *InputHandler) printLast(last map[field.Type]string) {
	if len(last) == 0 {
		h.out.Warn("Nothing seen this session")
		return
	}
	for _, t := range field.All {
		if v, ok := last[t]; ok {
			h.out.Printf("%-10s %s", t, valueStyle.Render(v))
		}
	}
}

func (h *InputHandler) printStats(stats map[string]int) {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	h.out.Printf("session %s", h.model.SessionID())
	for _, k := range keys {
		h.out.Printf("%-12s %s", k, utils.FormatWithCommas(stats[k]))
	}
}
