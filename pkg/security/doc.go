// Package security validates connection targets and options against
// security policy before any network activity occurs.
//
// All validators are pure functions returning a ValidationResult; they
// never panic and never return Go errors. Failure modes populate the
// result's Errors slice, advisory findings populate Warnings. Error text
// never contains credential material, even when the offending target
// embedded credentials.
package security
