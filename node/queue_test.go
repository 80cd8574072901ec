package node_test

import (
	"context"
	"testing"
	"time"

	"github.com/lora-edge/node-stack/node"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsPostedWork(t *testing.T) {
	q := node.NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	done := make(chan struct{})
	q.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("posted work never ran")
	}
}

func TestQueueAfterCancel(t *testing.T) {
	q := node.NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	fired := make(chan struct{})
	cancelTimer := q.After(50*time.Millisecond, func() { close(fired) })
	cancelTimer()

	select {
	case <-fired:
		t.Fatal("cancelled timer should not have fired")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestValidatePort(t *testing.T) {
	require.NoError(t, node.ValidatePort(1, false))
	require.NoError(t, node.ValidatePort(223, false))
	require.Error(t, node.ValidatePort(0, false))
	require.Error(t, node.ValidatePort(224, false))
	require.NoError(t, node.ValidatePort(224, true))
	require.Error(t, node.ValidatePort(225, true))
}
