package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/pinionhq/pinion/internal/config"
	"github.com/pinionhq/pinion/internal/model"
)

// renderPlan lists planned actions in the order the executor will run
// them. Dry runs and confirmation previews use the same listing.
func renderPlan(p model.Plan) string {
	var b strings.Builder

	if p.Empty() {
		b.WriteString(successStyle.Render("✔ nothing to do, the machine matches the target") + "\n")
		writeNotes(&b, p.Notes)
		return b.String()
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf("Plan: %d action(s)", len(p.Actions))) + "\n")
	for i, action := range p.Actions {
		line := fmt.Sprintf("  %2d. %s", i+1, action.Description)
		if action.Class == model.ClassNeedsConfirmation {
			line += warnStyle.Render("  [needs confirmation]")
		}
		b.WriteString(line + "\n")
	}
	writeNotes(&b, p.Notes)
	return b.String()
}

// renderReport summarizes a finished run: one line per action, warnings,
// then the verdict.
func renderReport(r *model.Report) string {
	var b strings.Builder

	for _, result := range r.Results {
		b.WriteString("  " + statusSymbol(result.Status) + " " + result.Action.Description)
		if result.Status != model.StatusSuccess && result.Message != "" {
			b.WriteString(noteStyle.Render(" (" + result.Message + ")"))
		}
		b.WriteString("\n")
	}

	if len(r.Warnings) > 0 {
		b.WriteString(sectionStyle.Render("Warnings:") + "\n")
		for _, warning := range r.Warnings {
			b.WriteString(warnStyle.Render("  ⚠ "+warning) + "\n")
		}
	}

	switch r.Status {
	case model.RunClean:
		b.WriteString(successStyle.Render(fmt.Sprintf("✔ converged in %s", r.Duration.Round(time.Millisecond))) + "\n")
	case model.RunWarnings:
		b.WriteString(warnStyle.Render(fmt.Sprintf("⚠ converged with %d warning(s)", len(r.Warnings))) + "\n")
	case model.RunFailed:
		b.WriteString(failureStyle.Render(fmt.Sprintf("✖ failed during %s: %v", r.Phase, r.Err)) + "\n")
	}

	return b.String()
}

// renderStatus is the human-readable drift report.
func renderStatus(cfg *config.Config, p model.Plan, observed model.ObservedState) string {
	var b strings.Builder

	active := observed.ActiveVersion
	if active == "" {
		active = "none"
	}
	b.WriteString(titleStyle.Render("Target: "+cfg.Runtime.ExecutableName(cfg.Runtime.Version)) + "\n")
	b.WriteString(fmt.Sprintf("  active version: %s\n", active))

	if p.Empty() {
		b.WriteString(successStyle.Render("✔ converged") + "\n")
	} else {
		b.WriteString(warnStyle.Render(fmt.Sprintf("⚠ drift: %d action(s) needed", len(p.Actions))) + "\n")
		for _, action := range p.Actions {
			b.WriteString("  - " + action.Description + "\n")
		}
	}
	writeNotes(&b, p.Notes)
	return b.String()
}

func writeNotes(b *strings.Builder, notes []string) {
	if len(notes) == 0 {
		return
	}
	b.WriteString(sectionStyle.Render("Notes:") + "\n")
	for _, note := range notes {
		b.WriteString(noteStyle.Render("  - "+note) + "\n")
	}
}

func statusSymbol(status string) string {
	switch status {
	case model.StatusSuccess:
		return successStyle.Render("✔")
	case model.StatusSkipped:
		return skippedStyle.Render("↷")
	default:
		return failureStyle.Render("✖")
	}
}
