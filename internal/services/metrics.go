package services

import "github.com/prometheus/client_golang/prometheus"

var (
	bookingsSubmitted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_submitted_total",
		Help: "Booking requests created.",
	})

	bookingDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_decisions_total",
			Help: "Administrator decisions on booking requests.",
		},
		[]string{"decision"},
	)

	galleryEntriesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gallery_entries_created_total",
		Help: "Gallery entries created on acceptance.",
	})

	signups = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "signups_total",
		Help: "Customer accounts created.",
	})

	// logins is labelled by result: "success" or "failure".
	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "logins_total",
			Help: "Login attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(bookingsSubmitted, bookingDecisions, galleryEntriesCreated, signups, logins)
}
