package sink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/vizbridge/message"
)

func TestFromTransform(t *testing.T) {
	tf := message.Transform{
		Translation: message.Vec3{X: 1, Y: 2, Z: 3},
		Rotation:    message.Quaternion{X: 0.1, Y: 0.2, Z: 0.3, W: 0.9},
	}

	rec := FromTransform(tf)
	assert.Equal(t, [3]float64{1, 2, 3}, rec.Translation)
	require.NotNil(t, rec.Quaternion)
	assert.Equal(t, [4]float64{0.1, 0.2, 0.3, 0.9}, *rec.Quaternion)
	assert.Nil(t, rec.Mat3x3)
	assert.False(t, rec.FromParent)
}

func TestFromPose(t *testing.T) {
	p := message.Pose{
		Position:    message.Vec3{X: -4, Y: 5, Z: 0.5},
		Orientation: message.Identity(),
	}

	rec := FromPose(p)
	assert.Equal(t, [3]float64{-4, 5, 0.5}, rec.Translation)
	require.NotNil(t, rec.Quaternion)
	assert.Equal(t, [4]float64{0, 0, 0, 1}, *rec.Quaternion)
}

func TestColumnMajor3x3(t *testing.T) {
	got := ColumnMajor3x3([9]float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	})
	assert.Equal(t, [9]float64{1, 4, 7, 2, 5, 8, 3, 6, 9}, got)
}

func TestRecordKinds(t *testing.T) {
	testCases := []struct {
		rec  Record
		want string
	}{
		{Transform3D{}, "transform3d"},
		{Pinhole{}, "pinhole"},
		{Image{}, "image"},
		{Scalar{}, "scalar"},
		{Points3D{}, "points3d"},
		{Asset{}, "asset"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, tc.rec.Kind())
	}
}
