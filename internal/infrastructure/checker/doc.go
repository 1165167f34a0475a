// Package checker holds the page checks of an audit run: external link
// probing, disabled button discovery, device responsiveness and the passive
// security audit.
//
// Checkers never return errors to their caller. A failure is recorded in the
// returned value (a synthetic entry or a section error) so a run always yields
// a complete report.
package checker
