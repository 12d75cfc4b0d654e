package services

import (
	"context"
	"errors"
	"net/http"

	"bid-coordinator/internal/domain"
	"bid-coordinator/pkg/logger"
)

// ErrorReport is the user-facing rendition of a bidding failure.
type ErrorReport struct {
	Code            domain.ErrorCode `json:"code"`
	Message         string           `json:"message"`
	Detail          string           `json:"detail,omitempty"`
	SuggestedAction string           `json:"suggested_action"`
	Retryable       bool             `json:"retryable"`
	HTTPStatus      int              `json:"-"`
}

type errorDescriptor struct {
	message string
	action  string
	status  int
}

var errorDescriptors = map[domain.ErrorCode]errorDescriptor{
	domain.CodeInsufficientBalance:   {"Your balance does not cover this bid.", "add_funds", http.StatusPaymentRequired},
	domain.CodeSelfBidForbidden:      {"You cannot bid on your own listing.", "browse_other_auctions", http.StatusForbidden},
	domain.CodeBidTooLow:             {"Your bid is below the minimum increment.", "increase_bid", http.StatusUnprocessableEntity},
	domain.CodeBidTooHigh:            {"Your bid exceeds the maximum allowed amount.", "lower_bid", http.StatusUnprocessableEntity},
	domain.CodeInvalidBid:            {"The bid is incomplete or malformed.", "check_bid", http.StatusBadRequest},
	domain.CodeAuctionEnded:          {"This auction has ended.", "view_results", http.StatusGone},
	domain.CodeAuctionNotFound:       {"This auction does not exist.", "browse_auctions", http.StatusNotFound},
	domain.CodeAuctionExists:         {"An auction with this id already exists.", "choose_another_id", http.StatusConflict},
	domain.CodeOutbid:                {"Another bidder placed a higher bid.", "place_higher_bid", http.StatusConflict},
	domain.CodeConcurrentBidConflict: {"Another bid was accepted while yours was processing.", "refresh_and_retry", http.StatusConflict},
	domain.CodeConcurrentBidAttempt:  {"You already have a bid in progress on this auction.", "wait_for_pending_bid", http.StatusConflict},
	domain.CodeRateLimitExceeded:     {"Too many bids in a short time.", "wait_and_retry", http.StatusTooManyRequests},
	domain.CodeNetworkError:          {"A network problem prevented your bid.", "check_connection", http.StatusServiceUnavailable},
	domain.CodeTimeout:               {"Your bid timed out.", "retry", http.StatusGatewayTimeout},
	domain.CodeServerError:           {"Something went wrong on our side.", "contact_support", http.StatusInternalServerError},
}

var (
	defaultRetryableCodes = []domain.ErrorCode{
		domain.CodeNetworkError,
		domain.CodeTimeout,
		domain.CodeConcurrentBidConflict,
		domain.CodeRateLimitExceeded,
	}
	defaultRetryableStatuses = []int{
		http.StatusRequestTimeout,
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	}
)

type ErrorHandlingService struct {
	retryableCodes    map[domain.ErrorCode]bool
	retryableStatuses map[int]bool
	log               logger.Logger
}

func NewErrorHandlingService(log logger.Logger) *ErrorHandlingService {
	s := &ErrorHandlingService{
		retryableCodes:    make(map[domain.ErrorCode]bool),
		retryableStatuses: make(map[int]bool),
		log:               log,
	}
	for _, c := range defaultRetryableCodes {
		s.retryableCodes[c] = true
	}
	for _, st := range defaultRetryableStatuses {
		s.retryableStatuses[st] = true
	}
	return s
}

// Classify maps err to a code, treating context expiry as a timeout.
func (s *ErrorHandlingService) Classify(err error) domain.ErrorCode {
	var be *domain.BidError
	if errors.As(err, &be) {
		return be.Code
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.CodeTimeout
	}
	return domain.CodeServerError
}

func (s *ErrorHandlingService) Handle(err error) ErrorReport {
	code := s.Classify(err)
	desc, ok := errorDescriptors[code]
	if !ok {
		desc = errorDescriptors[domain.CodeServerError]
	}

	report := ErrorReport{
		Code:            code,
		Message:         desc.message,
		SuggestedAction: desc.action,
		Retryable:       s.retryableCodes[code],
		HTTPStatus:      desc.status,
	}
	if code != domain.CodeServerError {
		report.Detail = err.Error()
	} else {
		s.log.Error("Unclassified bidding error", "error", err)
	}
	return report
}

func (s *ErrorHandlingService) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return s.retryableCodes[s.Classify(err)]
}

func (s *ErrorHandlingService) IsRetryableStatus(status int) bool {
	return s.retryableStatuses[status]
}
