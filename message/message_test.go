package message

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_RoundTrip(t *testing.T) {
	orig := time.Unix(1700000123, 456789000)
	wire := NewTime(orig)
	assert.Equal(t, int64(1700000123), wire.Sec)
	assert.Equal(t, int32(456789000), wire.Nsec)
	assert.True(t, wire.Time().Equal(orig))
	assert.False(t, wire.IsZero())
	assert.True(t, Time{}.IsZero())
}

func TestTFMessage_Decode(t *testing.T) {
	payload := `{"transforms":[{"header":{"stamp":{"sec":100,"nsec":500},"frame_id":"odom"},
		"child_frame_id":"base_link",
		"transform":{"translation":{"x":1,"y":2,"z":3},"rotation":{"x":0,"y":0,"z":0,"w":1}}}]}`

	var msg TFMessage
	require.NoError(t, json.Unmarshal([]byte(payload), &msg))
	require.Len(t, msg.Transforms, 1)

	tf := msg.Transforms[0]
	assert.Equal(t, "odom", tf.Header.FrameID)
	assert.Equal(t, "base_link", tf.ChildFrameID)
	assert.Equal(t, Vec3{X: 1, Y: 2, Z: 3}, tf.Transform.Translation)
	assert.Equal(t, Identity(), tf.Transform.Rotation)
}
