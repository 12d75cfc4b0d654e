package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bid-coordinator/internal/domain"

	mysqldriver "github.com/go-sql-driver/mysql"
)

const errDuplicateEntry = 1062

type MySQLAuctionRepository struct {
	db *sql.DB
}

func NewMySQLAuctionRepository(db *sql.DB) *MySQLAuctionRepository {
	return &MySQLAuctionRepository{db: db}
}

const auctionColumns = `id, title, seller_id, starting_price, end_time, status, created_at, updated_at`

func (r *MySQLAuctionRepository) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	endTime := sql.NullTime{Time: auction.EndTime, Valid: !auction.EndTime.IsZero()}
	_, err := r.db.ExecContext(ctx, query,
		auction.ID, auction.Title, auction.SellerID, auction.StartingPrice,
		endTime, int(auction.Status), auction.CreatedAt, auction.UpdatedAt)
	if err != nil {
		var me *mysqldriver.MySQLError
		if errors.As(err, &me) && me.Number == errDuplicateEntry {
			return domain.NewBidError(domain.CodeAuctionExists, "auction %s already exists", auction.ID)
		}
		return fmt.Errorf("insert auction %s: %w", auction.ID, err)
	}
	return nil
}

func (r *MySQLAuctionRepository) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`

	auction, err := scanAuction(r.db.QueryRowContext(ctx, query, auctionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewBidError(domain.CodeAuctionNotFound, "auction %s not found", auctionID)
		}
		return nil, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return auction, nil
}

func (r *MySQLAuctionRepository) UpdateAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	query := `UPDATE auctions SET status = ?, updated_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query, int(status), time.Now(), auctionID)
	if err != nil {
		return fmt.Errorf("update auction %s: %w", auctionID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NewBidError(domain.CodeAuctionNotFound, "auction %s not found", auctionID)
	}
	return nil
}

func (r *MySQLAuctionRepository) GetExpiredAuctions(ctx context.Context, before time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status IN (?, ?) AND end_time IS NOT NULL AND end_time <= ?`

	rows, err := r.db.QueryContext(ctx, query, int(domain.AuctionPending), int(domain.AuctionActive), before)
	if err != nil {
		return nil, fmt.Errorf("list expired auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, auction)
	}

	return auctions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	var status int
	var endTime sql.NullTime

	err := row.Scan(&auction.ID, &auction.Title, &auction.SellerID, &auction.StartingPrice,
		&endTime, &status, &auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	// A NULL end time is an auction without a deadline.
	if endTime.Valid {
		auction.EndTime = endTime.Time
	}
	auction.Status = domain.AuctionStatus(status)
	return &auction, nil
}
