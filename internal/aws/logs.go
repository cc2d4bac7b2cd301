package aws

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwlTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"

	"github.com/vietdv277/cwtail/pkg/provider"
	"github.com/vietdv277/cwtail/pkg/types"
)

// LogsAPI is the subset of the CloudWatch Logs client used by the provider
type LogsAPI interface {
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// CloudWatchLogsProvider implements the LogsProvider interface for AWS
type CloudWatchLogsProvider struct {
	api LogsAPI
}

// NewLogsProvider creates a new CloudWatch Logs provider
func NewLogsProvider(api LogsAPI) *CloudWatchLogsProvider {
	return &CloudWatchLogsProvider{api: api}
}

// LatestStream returns the stream with the most recent event in the log group
func (p *CloudWatchLogsProvider) LatestStream(ctx context.Context, logGroup string) (*types.LogStreamPointer, error) {
	input := &cloudwatchlogs.DescribeLogStreamsInput{
		OrderBy:    cwlTypes.OrderByLastEventTime,
		Descending: aws.Bool(true),
		Limit:      aws.Int32(1),
	}
	if isARN(logGroup) {
		input.LogGroupIdentifier = aws.String(logGroup)
	} else {
		input.LogGroupName = aws.String(logGroup)
	}

	output, err := p.api.DescribeLogStreams(ctx, input)
	if err != nil {
		return nil, classifyError(err)
	}

	if len(output.LogStreams) == 0 {
		return nil, provider.ErrNoStreams
	}

	stream := output.LogStreams[0]
	return &types.LogStreamPointer{
		LogGroup:      logGroup,
		StreamName:    deref(stream.LogStreamName),
		LastEventTime: millisToTime(stream.LastEventTimestamp),
	}, nil
}

// Records returns a page of events from the stream.
//
// With opts.After set the page starts right after that forward token.
// Otherwise OrderOldest reads from the head of the stream and OrderNewest
// reads the last opts.Limit events. Events are always returned ascending.
func (p *CloudWatchLogsProvider) Records(ctx context.Context, stream *types.LogStreamPointer, opts *provider.RecordOptions) (*provider.RecordPage, error) {
	if opts == nil {
		opts = &provider.RecordOptions{}
	}

	input := &cloudwatchlogs.GetLogEventsInput{
		LogStreamName: aws.String(stream.StreamName),
	}
	if isARN(stream.LogGroup) {
		input.LogGroupIdentifier = aws.String(stream.LogGroup)
	} else {
		input.LogGroupName = aws.String(stream.LogGroup)
	}
	if opts.Limit > 0 {
		input.Limit = aws.Int32(int32(opts.Limit))
	}

	switch {
	case opts.After != "":
		input.NextToken = aws.String(opts.After)
		input.StartFromHead = aws.Bool(true)
	case opts.Order == provider.OrderOldest:
		input.StartFromHead = aws.Bool(true)
	default:
		input.StartFromHead = aws.Bool(false)
	}

	output, err := p.api.GetLogEvents(ctx, input)
	if err != nil {
		return nil, classifyError(err)
	}

	page := &provider.RecordPage{
		NextToken: deref(output.NextForwardToken),
	}
	for _, e := range output.Events {
		page.Records = append(page.Records, types.LogRecord{
			Timestamp: millisToTime(e.Timestamp),
			Message:   deref(e.Message),
			Stream:    stream.StreamName,
		})
	}

	return page, nil
}

// classifyError maps AWS API error codes onto provider sentinel errors
func classifyError(err error) error {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException", "ParameterNotFound":
		return &providerError{sentinel: provider.ErrNotFound, err: err}
	case "AccessDeniedException", "UnauthorizedOperation":
		return &providerError{sentinel: provider.ErrPermissionDenied, err: err}
	case "ExpiredTokenException", "UnrecognizedClientException", "InvalidSignatureException":
		return &providerError{sentinel: provider.ErrAuthFailed, err: err}
	}
	return err
}

// providerError keeps the original API error text while matching a sentinel
type providerError struct {
	sentinel error
	err      error
}

func (e *providerError) Error() string {
	return e.sentinel.Error() + ": " + e.err.Error()
}

func (e *providerError) Is(target error) bool {
	return target == e.sentinel
}

func (e *providerError) Unwrap() error {
	return e.err
}

func isARN(s string) bool {
	return strings.HasPrefix(s, "arn:")
}

func millisToTime(ms *int64) time.Time {
	if ms == nil {
		return time.Time{}
	}
	return time.UnixMilli(*ms)
}

// deref safely dereferences a string pointer
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
