package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Holds puts short-lived per-seat holds in redis while a checkout is in
// flight, so competing requests for the same seat fail fast instead of
// queueing on the database. The reservations table stays authoritative;
// a hold that expires or leaks costs one round trip to the database, never
// a double booking.
type Holds struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewHolds(client *redis.Client, ttl time.Duration) *Holds {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Holds{Client: client, TTL: ttl}
}

func holdKey(showingID, seatID int64) string {
	return fmt.Sprintf("seat_hold:%d:%d", showingID, seatID)
}

// HoldSeat takes a hold on one seat. The token identifies the checkout that
// owns the hold.
func (h *Holds) HoldSeat(ctx context.Context, showingID, seatID int64, token string) (bool, error) {
	return h.Client.SetNX(ctx, holdKey(showingID, seatID), token, h.TTL).Result()
}

// ReleaseSeat drops the hold on one seat, but only if this checkout owns it.
// A hold taken over by another checkout after expiry is left alone.
func (h *Holds) ReleaseSeat(ctx context.Context, showingID, seatID int64, token string) error {
	key := holdKey(showingID, seatID)
	val, err := h.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err = h.Client.Del(ctx, key).Result()
		return err
	}
	return nil
}

// HoldSeats takes holds on every seat in the order given. On the first seat
// already held by another checkout it releases the holds taken during this
// call, in reverse order, and reports the seats it could not hold.
func (h *Holds) HoldSeats(ctx context.Context, showingID int64, seatIDs []int64, token string) (bool, []int64, error) {
	held := make([]int64, 0, len(seatIDs))
	rollback := func() {
		for i := len(held) - 1; i >= 0; i-- {
			_ = h.ReleaseSeat(ctx, showingID, held[i], token)
		}
	}
	for _, seatID := range seatIDs {
		ok, err := h.HoldSeat(ctx, showingID, seatID, token)
		if err != nil {
			rollback()
			return false, nil, err
		}
		if !ok {
			rollback()
			return false, []int64{seatID}, nil
		}
		held = append(held, seatID)
	}
	return true, nil, nil
}

// ReleaseSeats drops the checkout's holds. The first error is reported but
// does not stop the remaining releases.
func (h *Holds) ReleaseSeats(ctx context.Context, showingID int64, seatIDs []int64, token string) error {
	var firstErr error
	for _, seatID := range seatIDs {
		if err := h.ReleaseSeat(ctx, showingID, seatID, token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
