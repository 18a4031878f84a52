package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{}

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var a, b []int
	unsubA := Subscribe[ping](func(_ context.Context, p ping) { a = append(a, p.N) })
	unsubB := Subscribe[ping](func(_ context.Context, p ping) { b = append(b, p.N) })
	defer unsubB()
	Subscribe[pong](func(context.Context, pong) { t.Fatal("pong handler called for ping") })

	Publish(context.Background(), ping{1})
	unsubA()
	unsubA()
	Publish(context.Background(), ping{2})

	require.Equal(t, []int{1}, a)
	require.Equal(t, []int{1, 2}, b)
}

func TestWithoutBus(t *testing.T) {
	Use(nil)
	called := false
	unsubscribe := Subscribe[ping](func(context.Context, ping) { called = true })
	Publish(context.Background(), ping{1})
	unsubscribe()
	require.False(t, called)
}
