package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwlTypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietdv277/cwtail/pkg/provider"
	"github.com/vietdv277/cwtail/pkg/types"
)

type fakeLogsAPI struct {
	describeIn  *cloudwatchlogs.DescribeLogStreamsInput
	describeOut *cloudwatchlogs.DescribeLogStreamsOutput
	describeErr error

	eventsIn  *cloudwatchlogs.GetLogEventsInput
	eventsOut *cloudwatchlogs.GetLogEventsOutput
	eventsErr error
}

func (f *fakeLogsAPI) DescribeLogStreams(ctx context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.describeIn = in
	if f.describeErr != nil {
		return nil, f.describeErr
	}
	return f.describeOut, nil
}

func (f *fakeLogsAPI) GetLogEvents(ctx context.Context, in *cloudwatchlogs.GetLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error) {
	f.eventsIn = in
	if f.eventsErr != nil {
		return nil, f.eventsErr
	}
	return f.eventsOut, nil
}

func TestLatestStream_RequestsTopOneByLastEventTime(t *testing.T) {
	api := &fakeLogsAPI{
		describeOut: &cloudwatchlogs.DescribeLogStreamsOutput{
			LogStreams: []cwlTypes.LogStream{{
				LogStreamName:      aws.String("2026/10/17/[$LATEST]abc"),
				LastEventTimestamp: aws.Int64(1760700000000),
			}},
		},
	}
	p := NewLogsProvider(api)

	ptr, err := p.LatestStream(context.Background(), "/aws/lambda/bot")
	require.NoError(t, err)

	assert.Equal(t, "2026/10/17/[$LATEST]abc", ptr.StreamName)
	assert.Equal(t, "/aws/lambda/bot", ptr.LogGroup)
	assert.Equal(t, int64(1760700000000), ptr.LastEventTime.UnixMilli())

	in := api.describeIn
	assert.Equal(t, "/aws/lambda/bot", aws.ToString(in.LogGroupName))
	assert.Nil(t, in.LogGroupIdentifier)
	assert.Equal(t, cwlTypes.OrderByLastEventTime, in.OrderBy)
	assert.True(t, aws.ToBool(in.Descending))
	assert.Equal(t, int32(1), aws.ToInt32(in.Limit))
}

func TestLatestStream_ARNUsesIdentifier(t *testing.T) {
	api := &fakeLogsAPI{describeOut: &cloudwatchlogs.DescribeLogStreamsOutput{
		LogStreams: []cwlTypes.LogStream{{LogStreamName: aws.String("s1")}},
	}}
	p := NewLogsProvider(api)

	arn := "arn:aws:logs:eu-west-1:123456789012:log-group:/aws/lambda/bot"
	_, err := p.LatestStream(context.Background(), arn)
	require.NoError(t, err)

	assert.Equal(t, arn, aws.ToString(api.describeIn.LogGroupIdentifier))
	assert.Nil(t, api.describeIn.LogGroupName)
}

func TestLatestStream_NoStreams(t *testing.T) {
	api := &fakeLogsAPI{describeOut: &cloudwatchlogs.DescribeLogStreamsOutput{}}
	p := NewLogsProvider(api)

	_, err := p.LatestStream(context.Background(), "/aws/lambda/bot")
	assert.ErrorIs(t, err, provider.ErrNoStreams)
}

func TestLatestStream_ClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		code string
		want error
	}{
		{"ResourceNotFoundException", provider.ErrNotFound},
		{"AccessDeniedException", provider.ErrPermissionDenied},
		{"ExpiredTokenException", provider.ErrAuthFailed},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			apiErr := &smithy.GenericAPIError{Code: tt.code, Message: "boom"}
			p := NewLogsProvider(&fakeLogsAPI{describeErr: apiErr})

			_, err := p.LatestStream(context.Background(), "/aws/lambda/bot")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, err.Error(), "boom")

			var got smithy.APIError
			assert.True(t, errors.As(err, &got))
		})
	}
}

func TestLatestStream_PassesThroughOtherErrors(t *testing.T) {
	transport := errors.New("dial tcp: i/o timeout")
	p := NewLogsProvider(&fakeLogsAPI{describeErr: transport})

	_, err := p.LatestStream(context.Background(), "/aws/lambda/bot")
	assert.Equal(t, transport, err)
}

func TestRecords_Order(t *testing.T) {
	stream := &types.LogStreamPointer{LogGroup: "/aws/lambda/bot", StreamName: "s1"}

	tests := []struct {
		name          string
		opts          *provider.RecordOptions
		wantFromHead  bool
		wantNextToken string
	}{
		{"newest reads tail", &provider.RecordOptions{Limit: 5, Order: provider.OrderNewest}, false, ""},
		{"oldest reads head", &provider.RecordOptions{Limit: 5, Order: provider.OrderOldest}, true, ""},
		{"after token reads forward", &provider.RecordOptions{Limit: 5, Order: provider.OrderNewest, After: "f/123"}, true, "f/123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeLogsAPI{eventsOut: &cloudwatchlogs.GetLogEventsOutput{
				NextForwardToken: aws.String("f/456"),
			}}
			p := NewLogsProvider(api)

			page, err := p.Records(context.Background(), stream, tt.opts)
			require.NoError(t, err)

			assert.Equal(t, "f/456", page.NextToken)
			assert.Equal(t, tt.wantFromHead, aws.ToBool(api.eventsIn.StartFromHead))
			assert.Equal(t, tt.wantNextToken, aws.ToString(api.eventsIn.NextToken))
			assert.Equal(t, int32(5), aws.ToInt32(api.eventsIn.Limit))
			assert.Equal(t, "s1", aws.ToString(api.eventsIn.LogStreamName))
		})
	}
}

func TestRecords_ConvertsEvents(t *testing.T) {
	api := &fakeLogsAPI{eventsOut: &cloudwatchlogs.GetLogEventsOutput{
		Events: []cwlTypes.OutputLogEvent{
			{Message: aws.String("hello\n"), Timestamp: aws.Int64(1000)},
			{Message: aws.String("world\n"), Timestamp: aws.Int64(2000)},
		},
	}}
	p := NewLogsProvider(api)

	page, err := p.Records(context.Background(), &types.LogStreamPointer{LogGroup: "g", StreamName: "s1"}, nil)
	require.NoError(t, err)
	require.Len(t, page.Records, 2)

	assert.Equal(t, "hello\n", page.Records[0].Message)
	assert.Equal(t, "s1", page.Records[0].Stream)
	assert.Equal(t, int64(2000), page.Records[1].Timestamp.UnixMilli())
	assert.Nil(t, api.eventsIn.Limit)
}
