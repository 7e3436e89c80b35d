// Package sink holds the export backends a scraping run writes to.
// Sinks accept flat records one at a time; multiple sinks may share a
// single run.
package sink

import "RatePull/internal/domain/models"

// Sink is the interface any export backend must satisfy.
type Sink interface {
	Name() string
	Write(record models.Record) error
	Close() error
}
