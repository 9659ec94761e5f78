//go:build mage

// Package main provides build targets for pawku using Mage.
//
// Usage:
//
//	mage build          Compile the pawku binary to bin/
//	mage test:all       Run all tests
//	mage test:unit      Run tests without the race detector, skipping slow daemon tests
//	mage test:race      Run all tests with the race detector
//	mage test:cover     Write a coverage profile to bin/coverage.out
//	mage lint           Run golangci-lint
//	mage vet            Run go vet
//	mage clean          Remove build artifacts
//	mage install        Install pawku to GOPATH/bin
//	mage stats          Print Go LOC per package as JSON
package main

const (
	binGo      = "go"
	binaryName = "pawku"
	binaryDir  = "bin"
	cmdDir     = "./cmd/pawku"
	modulePath = "github.com/mesh-intelligence/pawku"
)

// Default is the target run by a bare "mage".
var Default = Build
