package radiusclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	posted []func()
}

func (d *recordingDispatcher) Post(fn func()) { d.posted = append(d.posted, fn) }

func TestInlineDispatch_RunsImmediately(t *testing.T) {
	ran := false
	inlineDispatch(func() { ran = true })
	assert.True(t, ran)
}

func TestDispatcher_PostQueuesRatherThanRuns(t *testing.T) {
	d := &recordingDispatcher{}
	ran := false
	d.Post(func() { ran = true })

	assert.False(t, ran, "Post should hand off the call, not execute it synchronously")
	require.Len(t, d.posted, 1)
	d.posted[0]()
	assert.True(t, ran)
}
