// Package types defines the hunger levels, action records, configuration,
// capability interfaces, and standard errors shared by the pawku packages.
package types
