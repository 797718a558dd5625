// Package diag builds diagnostic strings tagged with one of the VM driver's
// four error tiers (spec §7); the driver uses it for its structural and
// linkage messages, while load-time binding diagnostics are built in
// package vm. It is a small fluent builder in the style of
// the teacher's internal/errors.ErrorReporter, trimmed down since the core
// has no source text or caret positions to render against — only a tier, an
// optional subject (a binding or function name), a message, and notes.
package diag

import (
	"strings"

	"github.com/fatih/color"
)

// Tier is one of the four reporting tiers spec §7 names.
type Tier string

const (
	TierLoad       Tier = "load"
	TierStructural Tier = "structural"
	TierRuntime    Tier = "runtime"
	TierLinkage    Tier = "linkage"
)

// Diagnostic is a single reported problem. Construct with New and chain the
// With* methods; call Error() for the plain-text form stored in
// VmResult.Message, or Render() for a colorized
// form suitable for a terminal.
type Diagnostic struct {
	Tier    Tier
	Subject string
	Message string
	Notes   []string
}

func New(tier Tier, message string) *Diagnostic {
	return &Diagnostic{Tier: tier, Message: message}
}

func (d *Diagnostic) WithSubject(subject string) *Diagnostic {
	d.Subject = subject
	return d
}

func (d *Diagnostic) WithNote(note string) *Diagnostic {
	d.Notes = append(d.Notes, note)
	return d
}

// Error renders the diagnostic as plain text: "tier: subject: message", with
// the subject segment omitted when empty.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(string(d.Tier))
	b.WriteString(": ")
	if d.Subject != "" {
		b.WriteString(d.Subject)
		b.WriteString(": ")
	}
	b.WriteString(d.Message)
	return b.String()
}

// Render formats the diagnostic with the same bold/dim coloring scheme the
// teacher's reporter uses for compiler errors, for use by cmd/impulse.
func (d *Diagnostic) Render() string {
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	var b strings.Builder
	if d.Subject != "" {
		b.WriteString(bold(string(d.Tier)+" ["+d.Subject+"]"))
	} else {
		b.WriteString(bold(string(d.Tier)))
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	for _, note := range d.Notes {
		b.WriteString("\n")
		b.WriteString(dim("  note: "))
		b.WriteString(note)
	}
	return b.String()
}
