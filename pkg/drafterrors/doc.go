// Package drafterrors provides error definitions shared by the drafting
// packages.
//
// Packages wrap these sentinels with context so callers can classify
// failures with errors.Is regardless of where they originated.
package drafterrors
