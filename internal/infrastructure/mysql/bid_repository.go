package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"bid-coordinator/internal/domain"
)

type MySQLBidRepository struct {
	db *sql.DB
}

func NewMySQLBidRepository(db *sql.DB) *MySQLBidRepository {
	return &MySQLBidRepository{db: db}
}

func (r *MySQLBidRepository) SaveBid(ctx context.Context, bid *domain.Bid) error {
	query := `
        INSERT INTO bids (id, auction_id, user_id, amount, placed_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.AuctionID, bid.UserID, bid.Amount, bid.Timestamp)
	if err != nil {
		return fmt.Errorf("insert bid %s: %w", bid.ID, err)
	}
	return nil
}

// GetBidHistory returns archived bids oldest first; only the last one is winning.
func (r *MySQLBidRepository) GetBidHistory(ctx context.Context, auctionID string) ([]*domain.Bid, error) {
	query := `
        SELECT id, auction_id, user_id, amount, placed_at
        FROM bids
        WHERE auction_id = ?
        ORDER BY placed_at ASC
    `

	rows, err := r.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("query bids for %s: %w", auctionID, err)
	}
	defer rows.Close()

	var bids []*domain.Bid
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.AuctionID, &bid.UserID, &bid.Amount, &bid.Timestamp); err != nil {
			return nil, err
		}
		bids = append(bids, &bid)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(bids) > 0 {
		bids[len(bids)-1].IsWinning = true
	}
	return bids, nil
}
