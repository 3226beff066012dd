//go:build mage

// Package main provides build targets for the nodeflow project using Mage.
//
// Usage:
//
//	mage build          Compile the nodeflow binary to bin/
//	mage test:all       Run every test
//	mage test:race      Run every test with the race detector
//	mage test:cover     Run every test and write coverage.out
//	mage test:package   Run the tests of one package (PKG=internal/sqlite)
//	mage vet            Run go vet
//	mage lint           Run go vet and golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install nodeflow to GOPATH/bin
//	mage stats          Print Go LOC and documentation word counts
package main
