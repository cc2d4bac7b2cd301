package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietdv277/cwtail/pkg/types"
)

// Common errors
var (
	ErrNotFound         = errors.New("resource not found")
	ErrNoStreams        = errors.New("no log streams found")
	ErrAuthFailed       = errors.New("authentication failed")
	ErrPermissionDenied = errors.New("permission denied")
)

// Order selects which end of a stream a record page is read from
type Order string

const (
	// OrderNewest returns the last N records of the stream, ascending
	OrderNewest Order = "newest"
	// OrderOldest returns the first N records of the stream, ascending
	OrderOldest Order = "oldest"
)

// ParseOrder validates an order name
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case OrderNewest, OrderOldest:
		return Order(s), nil
	case "":
		return OrderNewest, nil
	default:
		return "", fmt.Errorf("invalid order %q (supported: newest, oldest)", s)
	}
}

// RecordOptions contains options for fetching records from a stream
type RecordOptions struct {
	Limit int   // Max records
	Order Order // Ignored when After is set
	After string
}

// RecordPage is a batch of records plus the token to continue after it
type RecordPage struct {
	Records   []types.LogRecord
	NextToken string
}

// LogsProvider defines the interface for log operations
type LogsProvider interface {
	// LatestStream returns the most recently active stream of a log group.
	// It returns ErrNoStreams when the group exists but has no streams and
	// ErrNotFound when the group does not exist.
	LatestStream(ctx context.Context, logGroup string) (*types.LogStreamPointer, error)

	// Records returns up to opts.Limit records from the stream
	Records(ctx context.Context, stream *types.LogStreamPointer, opts *RecordOptions) (*RecordPage, error)
}
