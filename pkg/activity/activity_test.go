package activity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/offlinefirst/actionrec/pkg/keys"
	"github.com/offlinefirst/actionrec/pkg/recording"
)

func TestSummarizeBucketsByInterval(t *testing.T) {
	events := []recording.Event{
		recording.MoveEvent(0.1, 1, 1),
		recording.KeyPressEvent(0.4, keys.Char('a')),
		recording.KeyReleaseEvent(0.6, keys.Char('a')),
		recording.ClickEvent(2.5, 1, 1, recording.ButtonLeft, true),
		recording.KeyPressEvent(2.7, keys.Char('a')),
		recording.KeyPressEvent(2.9, keys.Named(keys.Enter)),
	}

	summary, err := Summarize(events, time.Second)
	require.NoError(t, err)

	assert.Equal(t, 6, summary.Events)
	assert.InDelta(t, 2.9, summary.Duration, 1e-9)
	assert.InDelta(t, 1.9, summary.LongestGap, 1e-9)
	assert.Equal(t, 3, summary.Kinds[recording.KeyPress])
	assert.Equal(t, 1, summary.Kinds[recording.MouseClick])

	require.Len(t, summary.Buckets, 2)
	assert.Equal(t, 0.0, summary.Buckets[0].Start)
	assert.Equal(t, 3, summary.Buckets[0].Count)
	assert.Equal(t, 2.0, summary.Buckets[1].Start)
	assert.Equal(t, 3.0, summary.Buckets[1].End)
	assert.Equal(t, 2, summary.Buckets[1].Kinds[recording.KeyPress])

	assert.Equal(t, []string{keys.Char('a').String(), keys.Named(keys.Enter).String()}, summary.TopKeys(5))
	assert.Len(t, summary.TopKeys(1), 1)
}

func TestSummarizeEmptyRecording(t *testing.T) {
	summary, err := Summarize(nil, 0)
	require.NoError(t, err)
	assert.Zero(t, summary.Events)
	assert.Empty(t, summary.Buckets)
	assert.Empty(t, summary.TopKeys(3))
}

func TestSummarizeRejectsNegativeInterval(t *testing.T) {
	_, err := Summarize(nil, -time.Second)
	assert.Error(t, err)
}
