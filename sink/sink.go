// Package sink defines the append-only visualization recorder the bridge
// forwards to. Records are placed at hierarchical entity paths, either on the
// session timeline (Log) or as one-time static entries (LogStatic). The sink
// has no read API.
package sink

import (
	"context"

	"github.com/c360/vizbridge/message"
)

// Recorder is the consumed sink interface.
type Recorder interface {
	// StartSession opens a recording session identified by id. Must be called
	// once before any Log/LogStatic.
	StartSession(ctx context.Context, id string) error

	// Log places a record at entityPath at the given session-relative time in
	// seconds.
	Log(entityPath string, rec Record, t float64) error

	// LogStatic places a one-time record not associated with the timeline.
	LogStatic(entityPath string, rec Record) error

	// Close flushes and releases the sink connection.
	Close() error
}

// Record is a typed sink payload. Kind tags the JSON envelope on the wire.
type Record interface {
	Kind() string
}

// Transform3D is a rigid transform record. Exactly one of Mat3x3 (column-major
// 3x3 rotation) or Quaternion (xyzw) is set.
type Transform3D struct {
	Translation [3]float64  `json:"translation"`
	Mat3x3      *[9]float64 `json:"mat3x3,omitempty"`
	Quaternion  *[4]float64 `json:"quaternion,omitempty"`
	FromParent  bool        `json:"from_parent,omitempty"`
}

// Kind implements Record.
func (Transform3D) Kind() string { return "transform3d" }

// FromTransform converts a bus rigid transform into a sink record.
func FromTransform(tf message.Transform) Transform3D {
	q := [4]float64{tf.Rotation.X, tf.Rotation.Y, tf.Rotation.Z, tf.Rotation.W}
	return Transform3D{
		Translation: [3]float64{tf.Translation.X, tf.Translation.Y, tf.Translation.Z},
		Quaternion:  &q,
	}
}

// FromPose converts a bus pose into a sink transform record.
func FromPose(p message.Pose) Transform3D {
	q := [4]float64{p.Orientation.X, p.Orientation.Y, p.Orientation.Z, p.Orientation.W}
	return Transform3D{
		Translation: [3]float64{p.Position.X, p.Position.Y, p.Position.Z},
		Quaternion:  &q,
	}
}

// Pinhole is a camera intrinsics record. ImageFromCamera is column-major.
type Pinhole struct {
	ImageFromCamera [9]float64 `json:"image_from_camera"`
	Width           uint32     `json:"width"`
	Height          uint32     `json:"height"`
}

// Kind implements Record.
func (Pinhole) Kind() string { return "pinhole" }

// Image is a raw image record. Meter is non-zero for depth encodings and
// gives the number of data units per meter (1000 for millimeter uint16 depth).
type Image struct {
	Encoding string  `json:"encoding"`
	Width    uint32  `json:"width"`
	Height   uint32  `json:"height"`
	Data     []byte  `json:"data"`
	Meter    float64 `json:"meter,omitempty"`
}

// Kind implements Record.
func (Image) Kind() string { return "image" }

// Scalar is a single plotted value.
type Scalar struct {
	Value float64 `json:"value"`
}

// Kind implements Record.
func (Scalar) Kind() string { return "scalar" }

// Points3D is a point cloud or trajectory breadcrumb record.
type Points3D struct {
	Points [][3]float64 `json:"points"`
}

// Kind implements Record.
func (Points3D) Kind() string { return "points3d" }

// Asset is a one-time structured file import (robot model descriptions).
type Asset struct {
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// Kind implements Record.
func (Asset) Kind() string { return "asset" }

// ColumnMajor3x3 reorders a row-major 3x3 matrix into column-major order,
// the layout the sink expects.
func ColumnMajor3x3(rowMajor [9]float64) [9]float64 {
	return [9]float64{
		rowMajor[0], rowMajor[3], rowMajor[6],
		rowMajor[1], rowMajor[4], rowMajor[7],
		rowMajor[2], rowMajor[5], rowMajor[8],
	}
}
