package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusyGuard_OneExportPerFolder(t *testing.T) {
	var g busyGuard

	require.True(t, g.start(7))
	assert.False(t, g.start(7))
	assert.True(t, g.start(8), "other folders are independent")
	assert.True(t, g.exporting(7))

	g.finish(7)
	g.finish(8)
	assert.False(t, g.exporting(7))
	assert.True(t, g.start(7))
	g.finish(7)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	g.drain(ctx)
	assert.NoError(t, ctx.Err())
}

func TestBusyGuard_DrainWaitsForRunningExport(t *testing.T) {
	var g busyGuard
	require.True(t, g.start(1))

	drained := make(chan struct{})
	go func() {
		g.drain(context.Background())
		close(drained)
	}()
	select {
	case <-drained:
		t.Fatal("drain returned with an export running")
	case <-time.After(20 * time.Millisecond):
	}
	g.finish(1)
	<-drained
}
