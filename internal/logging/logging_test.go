package logging

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	eventbus "github.com/hanpama/bookgraph/internal/eventbus"
	events "github.com/hanpama/bookgraph/internal/events"
	executor "github.com/hanpama/bookgraph/internal/executor"
	graph "github.com/hanpama/bookgraph/internal/graph"
	reqid "github.com/hanpama/bookgraph/internal/reqid"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New("debug", format)
		require.NoError(t, err)
		require.True(t, l.Core().Enabled(zapcore.DebugLevel))
	}
	l, err := New("warn", "json")
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("loud", "json")
	require.Error(t, err)
	_, err = New("info", "xml")
	require.EqualError(t, err, `unknown log format "xml"`)
}

func TestSubscribe(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	core, logs := observer.New(zapcore.DebugLevel)
	unsubscribe := Subscribe(zap.New(core))
	defer unsubscribe()

	ctx, rid := reqid.WithID(context.Background(), "r1")
	eventbus.Publish(ctx, events.EntityCreated{Kind: events.KindBook, ID: 3, Name: "B3"})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationName: "Add", OperationType: "mutation", Duration: time.Millisecond})
	eventbus.Publish(ctx, events.GraphQLFinish{OperationType: "query", Errors: []error{
		executor.GraphQLError{Message: "not found"},
		executor.GraphQLError{Message: "Book.name: unexpected value of type int", Extensions: map[string]any{"code": graph.CodeInternal}},
	}})
	eventbus.Publish(ctx, events.HTTPFinish{Request: httptest.NewRequest("POST", "/graphql", nil), Status: 200})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	require.Equal(t, "entity created", entries[0].Message)
	require.Equal(t, map[string]any{"request_id": rid, "kind": "Book", "id": int64(3), "name": "B3"}, entries[0].ContextMap())

	require.Equal(t, "graphql operation", entries[1].Message)
	require.Equal(t, zapcore.InfoLevel, entries[1].Level)

	require.Equal(t, "graphql operation failed", entries[2].Message)
	require.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	require.Equal(t, "Book.name: unexpected value of type int", entries[2].ContextMap()["error"])

	require.Equal(t, "http request", entries[3].Message)
	require.Equal(t, zapcore.DebugLevel, entries[3].Level)
	require.Equal(t, int64(200), entries[3].ContextMap()["status"])

	unsubscribe()
	eventbus.Publish(ctx, events.EntityCreated{Kind: events.KindBook, ID: 4})
	require.Equal(t, 4, logs.Len())
}
