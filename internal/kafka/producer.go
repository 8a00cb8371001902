package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"cinema-booking/internal/models"
)

type Producer struct {
	Writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{Writer: writer}
}

// bookingPlacedEvent is the wire shape of a committed booking.
type bookingPlacedEvent struct {
	BillID     int64     `json:"bill_id"`
	UserID     int64     `json:"user_id"`
	DiscountID *int64    `json:"discount_id,omitempty"`
	TicketIDs  []int64   `json:"ticket_ids"`
	Total      float64   `json:"total"`
	PlacedAt   time.Time `json:"placed_at"`
}

// PublishBookingPlaced streams a committed booking. Keyed by bill id so all
// events of one bill land in one partition.
func (p *Producer) PublishBookingPlaced(bill models.Bill, ticketIDs []int64, total float64) error {
	event := bookingPlacedEvent{
		BillID:     bill.ID,
		UserID:     bill.UserID,
		DiscountID: bill.DiscountID,
		TicketIDs:  ticketIDs,
		Total:      total,
		PlacedAt:   bill.CreatedAt,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal booking placed event: %w", err)
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: TopicBookingPlaced,
		Key:   []byte(strconv.FormatInt(bill.ID, 10)),
		Value: value,
	})
}

// seatStatusEvent tells seat map consumers which seats just left the pool.
type seatStatusEvent struct {
	ShowingID int64     `json:"showing_id"`
	SeatIDs   []int64   `json:"seat_ids"`
	Status    string    `json:"status"`
	At        time.Time `json:"at"`
}

// PublishSeatsReserved streams the seats a committed booking took, keyed by
// showing id so one showing's seat map updates stay ordered.
func (p *Producer) PublishSeatsReserved(showingID int64, seatIDs []int64) error {
	event := seatStatusEvent{
		ShowingID: showingID,
		SeatIDs:   seatIDs,
		Status:    "reserved",
		At:        time.Now().UTC(),
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal seat status event: %w", err)
	}
	return p.Writer.WriteMessages(context.Background(), kafka.Message{
		Topic: TopicSeatStatus,
		Key:   []byte(strconv.FormatInt(showingID, 10)),
		Value: value,
	})
}

// CreateTopicIfNotExists provisions a topic on first use so a fresh broker
// does not reject the first publish.
func CreateTopicIfNotExists(brokers []string, topic string) error {
	if len(brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka: %w", err)
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
