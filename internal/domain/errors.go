package domain

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInsufficientBalance   ErrorCode = "INSUFFICIENT_BALANCE"
	CodeSelfBidForbidden      ErrorCode = "SELF_BID_FORBIDDEN"
	CodeBidTooLow             ErrorCode = "BID_TOO_LOW"
	CodeBidTooHigh            ErrorCode = "BID_TOO_HIGH"
	CodeInvalidBid            ErrorCode = "INVALID_BID"
	CodeAuctionEnded          ErrorCode = "AUCTION_ENDED"
	CodeAuctionNotFound       ErrorCode = "AUCTION_NOT_FOUND"
	CodeAuctionExists         ErrorCode = "AUCTION_EXISTS"
	CodeOutbid                ErrorCode = "OUTBID"
	CodeConcurrentBidConflict ErrorCode = "CONCURRENT_BID_CONFLICT"
	CodeConcurrentBidAttempt  ErrorCode = "CONCURRENT_BID_ATTEMPT"
	CodeRateLimitExceeded     ErrorCode = "RATE_LIMIT_EXCEEDED"
	CodeNetworkError          ErrorCode = "NETWORK_ERROR"
	CodeTimeout               ErrorCode = "TIMEOUT"
	CodeServerError           ErrorCode = "SERVER_ERROR"
)

// BidError is a coded failure surfaced to bidders. Two BidErrors match
// under errors.Is when their codes are equal.
type BidError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *BidError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BidError) Unwrap() error {
	return e.Err
}

func (e *BidError) Is(target error) bool {
	var t *BidError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewBidError(code ErrorCode, format string, args ...interface{}) *BidError {
	return &BidError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func WrapBidError(code ErrorCode, err error, message string) *BidError {
	return &BidError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code carried by err, or SERVER_ERROR for uncoded errors.
func CodeOf(err error) ErrorCode {
	var be *BidError
	if errors.As(err, &be) {
		return be.Code
	}
	return CodeServerError
}

var (
	ErrInsufficientBalance   = &BidError{Code: CodeInsufficientBalance, Message: "insufficient balance"}
	ErrSelfBidForbidden      = &BidError{Code: CodeSelfBidForbidden, Message: "sellers cannot bid on their own auction"}
	ErrBidTooLow             = &BidError{Code: CodeBidTooLow, Message: "bid amount too low"}
	ErrBidTooHigh            = &BidError{Code: CodeBidTooHigh, Message: "bid amount above ceiling"}
	ErrInvalidBid            = &BidError{Code: CodeInvalidBid, Message: "invalid bid"}
	ErrAuctionEnded          = &BidError{Code: CodeAuctionEnded, Message: "auction has ended"}
	ErrAuctionNotFound       = &BidError{Code: CodeAuctionNotFound, Message: "auction not found"}
	ErrAuctionExists         = &BidError{Code: CodeAuctionExists, Message: "auction already exists"}
	ErrOutbid                = &BidError{Code: CodeOutbid, Message: "outbid by another bidder"}
	ErrConcurrentBidConflict = &BidError{Code: CodeConcurrentBidConflict, Message: "bid lost a race with another bid"}
	ErrConcurrentBidAttempt  = &BidError{Code: CodeConcurrentBidAttempt, Message: "a bid from this user is already in progress"}
	ErrRateLimitExceeded     = &BidError{Code: CodeRateLimitExceeded, Message: "too many requests"}
	ErrNetwork               = &BidError{Code: CodeNetworkError, Message: "network error"}
	ErrTimeout               = &BidError{Code: CodeTimeout, Message: "request timed out"}
)
