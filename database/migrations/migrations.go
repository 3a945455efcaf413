// Package migrations contains all schema migrations. Each file registers
// itself from init(); cmd/atelier and pkg/testkit import this package so
// the registry is populated before the runner starts.
package migrations
