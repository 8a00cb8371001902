package kafka

// Topics the booking service produces to. Consumers (notifications, seat
// map pushes) live in other services.
const (
	TopicBookingPlaced = "cinema.bookings.placed"
	TopicSeatStatus    = "cinema.seats.status"
)
