package metrics

import "time"

type Metrics interface {
	// Business
	RecordOrderCreated(status string)
	RecordOrderCancelled(status string)
	RecordUseCaseExecution(useCaseName string, success bool, duration time.Duration)

	// Unit of work
	RecordTransaction(backend, outcome string)
	IncConcurrencyConflict(useCaseName string)

	// Infrastructure (HTTP & messaging)
	ObserveHTTPRequestDuration(method, path, statusCode string, duration float64)
	IncOutboxEventsProcessed(status string)
	IncConsumerMessages(handler, outcome string)
}

type nop struct{}

// NewNop returns a Metrics that records nothing.
func NewNop() Metrics { return nop{} }

func (nop) RecordOrderCreated(string)                                  {}
func (nop) RecordOrderCancelled(string)                                {}
func (nop) RecordUseCaseExecution(string, bool, time.Duration)         {}
func (nop) RecordTransaction(string, string)                           {}
func (nop) IncConcurrencyConflict(string)                              {}
func (nop) ObserveHTTPRequestDuration(string, string, string, float64) {}
func (nop) IncOutboxEventsProcessed(string)                            {}
func (nop) IncConsumerMessages(string, string)                         {}
