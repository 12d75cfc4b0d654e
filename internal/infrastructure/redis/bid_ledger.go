package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// atomicBidScript accepts a bid only if the stored leader is still the one
// the caller validated against, and the bid beats it.
//   KEYS[1] - auction hash
//   ARGV[1] - amount
//   ARGV[2] - user id
//   ARGV[3] - unix timestamp
//   ARGV[4] - expected current bid, 0 when none is stored
var atomicBidScript = redis.NewScript(`
local current_amount = redis.call('HGET', KEYS[1], 'current_bid')
local current = tonumber(current_amount or "0")
local new_amount = tonumber(ARGV[1])

if current ~= tonumber(ARGV[4]) then
    return 0
end
if current_amount ~= false and new_amount <= current then
    return 0
end

redis.call('HSET', KEYS[1],
    'current_bid', ARGV[1],
    'winner_id', ARGV[2],
    'last_updated', ARGV[3])
return 1
`)

// RedisBidLedger mirrors each auction's leading bid so instances cannot
// both accept bids at the same price level.
type RedisBidLedger struct {
	client *redis.Client
}

func NewRedisBidLedger(client *redis.Client) *RedisBidLedger {
	return &RedisBidLedger{client: client}
}

func ledgerKey(auctionID string) string {
	return fmt.Sprintf("auction:%s", auctionID)
}

func (r *RedisBidLedger) InitializeAuction(ctx context.Context, auctionID string, startingBid float64) error {
	return r.client.HSet(ctx, ledgerKey(auctionID),
		"current_bid", fmt.Sprintf("%.2f", startingBid),
		"winner_id", "",
		"last_updated", time.Now().Unix(),
	).Err()
}

func (r *RedisBidLedger) AtomicBidUpdate(ctx context.Context, auctionID, userID string, amount, expected float64) (bool, error) {
	result, err := atomicBidScript.Run(ctx, r.client, []string{ledgerKey(auctionID)},
		fmt.Sprintf("%.2f", amount),
		userID,
		strconv.FormatInt(time.Now().Unix(), 10),
		fmt.Sprintf("%.2f", expected)).Int64()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// GetLeader returns the stored leading amount and user, or zero values
// for an auction the ledger does not know.
func (r *RedisBidLedger) GetLeader(ctx context.Context, auctionID string) (float64, string, error) {
	result, err := r.client.HMGet(ctx, ledgerKey(auctionID), "current_bid", "winner_id").Result()
	if err != nil {
		return 0, "", err
	}

	amount := 0.0
	winnerID := ""
	if s, ok := result[0].(string); ok {
		amount, _ = strconv.ParseFloat(s, 64)
	}
	if s, ok := result[1].(string); ok {
		winnerID = s
	}
	return amount, winnerID, nil
}
