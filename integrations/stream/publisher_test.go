package stream_test

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks Producer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/mock/gomock"

	"rwaledger/core/events"
	"rwaledger/core/types"
	"rwaledger/integrations/stream"
	"rwaledger/integrations/stream/mocks"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPublisherKeysRecordsByAsset(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	publisher := stream.NewPublisher(producer, "rwa.events", quietLogger())

	var captured []*kgo.Record
	producer.EXPECT().
		Produce(gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
			captured = append(captured, r)
			promise(r, nil)
		}).
		Times(2)

	publisher.Emit(events.Committed{Payload: &types.Event{
		Type:       "rwa.investment",
		Sequence:   12,
		Timestamp:  1_700_000_000,
		Attributes: map[string]string{"assetId": "3", "amount": "100"},
	}})
	publisher.Emit(events.Committed{Payload: &types.Event{
		Type:       "rwa.country_whitelisted",
		Sequence:   13,
		Attributes: map[string]string{"country": "US"},
	}})

	require.Len(t, captured, 2)
	require.Equal(t, "rwa.events", captured[0].Topic)
	require.Equal(t, []byte("3"), captured[0].Key)
	require.Equal(t, []byte("rwa.country_whitelisted"), captured[1].Key)

	var msg stream.Message
	require.NoError(t, json.Unmarshal(captured[0].Value, &msg))
	require.Equal(t, uint64(12), msg.Sequence)
	require.Equal(t, "100", msg.Attributes["amount"])
	require.Equal(t, "event-type", captured[0].Headers[0].Key)
}

func TestPublisherSurvivesDeliveryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	publisher := stream.NewPublisher(producer, "rwa.events", quietLogger())

	producer.EXPECT().
		Produce(gomock.Any(), gomock.Any(), gomock.Any()).
		Do(func(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
			promise(r, errors.New("broker unavailable"))
		})

	publisher.Emit(events.Committed{Payload: &types.Event{Type: "rwa.transfer", Sequence: 1}})
}

func TestPublisherSkipsEmptyPayload(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	publisher := stream.NewPublisher(producer, "rwa.events", quietLogger())
	publisher.Emit(events.Committed{})
}

func TestPublisherCloseFlushes(t *testing.T) {
	ctrl := gomock.NewController(t)
	producer := mocks.NewMockProducer(ctrl)
	publisher := stream.NewPublisher(producer, "rwa.events", quietLogger())

	gomock.InOrder(
		producer.EXPECT().Flush(gomock.Any()).Return(nil),
		producer.EXPECT().Close(),
	)
	require.NoError(t, publisher.Close(context.Background()))
}

func TestDialValidatesConfig(t *testing.T) {
	_, err := stream.Dial(stream.Config{Topic: "rwa.events"}, nil)
	require.Error(t, err)
	_, err = stream.Dial(stream.Config{Brokers: []string{"localhost:9092"}}, nil)
	require.Error(t, err)
}
