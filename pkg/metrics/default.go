package metrics

// Default metrics for the API process, registered at init. The worker
// builds its own instance under a separate namespace.
var std = NewMetrics("booking_api")

var (
	BookingsCreated     = std.BookingsCreated
	BookingConflicts    = std.BookingConflicts
	AvailabilityLatency = std.AvailabilityLatency
	DatabaseOperations  = std.DatabaseOperations
)

func Default() *Metrics {
	return std
}
