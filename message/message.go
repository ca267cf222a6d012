// Package message defines the typed payloads carried by the robotics message
// bus. All payloads are JSON-encoded on the wire; every stamped message embeds
// a Header carrying the source frame and an absolute timestamp.
package message

import "time"

// Message type tags as they appear in topic announcements. The bridge
// dispatches handlers by these identifiers; anything else is ignored.
const (
	TypeImage       = "sensor_msgs/Image"
	TypeImu         = "sensor_msgs/Imu"
	TypePoseStamped = "geometry_msgs/PoseStamped"
	TypeOdometry    = "nav_msgs/Odometry"
	TypeCameraInfo  = "sensor_msgs/CameraInfo"
	TypeTFMessage   = "tf2_msgs/TFMessage"
)

// Time is an absolute timestamp split into whole seconds and nanoseconds,
// matching the source bus representation.
type Time struct {
	Sec  int64 `json:"sec"`
	Nsec int32 `json:"nsec"`
}

// NewTime converts a time.Time into the wire representation.
func NewTime(t time.Time) Time {
	return Time{Sec: t.Unix(), Nsec: int32(t.Nanosecond())}
}

// Time converts the wire representation back to a time.Time.
func (t Time) Time() time.Time {
	return time.Unix(t.Sec, int64(t.Nsec))
}

// IsZero reports whether the timestamp is unset.
func (t Time) IsZero() bool {
	return t.Sec == 0 && t.Nsec == 0
}

// Header carries the metadata common to all stamped messages.
type Header struct {
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vec3 is a 3D vector.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is a rotation in xyzw order.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity returns the identity rotation.
func Identity() Quaternion {
	return Quaternion{W: 1}
}

// Transform is a rigid transform: rotate then translate.
type Transform struct {
	Translation Vec3       `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// Pose is a position with an orientation.
type Pose struct {
	Position    Vec3       `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Image is a raw sensor image. Depth images use the 16UC1 (millimeter) or
// 32FC1 (meter) encodings; everything else is treated as color.
type Image struct {
	Header   Header `json:"header"`
	Height   uint32 `json:"height"`
	Width    uint32 `json:"width"`
	Encoding string `json:"encoding"`
	Step     uint32 `json:"step"`
	Data     []byte `json:"data"`
}

// Imu carries inertial measurements.
type Imu struct {
	Header             Header     `json:"header"`
	Orientation        Quaternion `json:"orientation"`
	AngularVelocity    Vec3       `json:"angular_velocity"`
	LinearAcceleration Vec3       `json:"linear_acceleration"`
}

// PoseStamped is a pose in the frame named by its header.
type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

// Odometry is an estimated pose of ChildFrameID expressed in the header frame.
type Odometry struct {
	Header       Header `json:"header"`
	ChildFrameID string `json:"child_frame_id"`
	Pose         Pose   `json:"pose"`
}

// CameraInfo carries the pinhole intrinsics for a camera stream.
// K is the 3x3 intrinsic matrix in row-major order.
type CameraInfo struct {
	Header Header     `json:"header"`
	Height uint32     `json:"height"`
	Width  uint32     `json:"width"`
	K      [9]float64 `json:"k"`
}

// TransformStamped names a rigid transform from the header frame (parent) to
// ChildFrameID at the header stamp.
type TransformStamped struct {
	Header       Header    `json:"header"`
	ChildFrameID string    `json:"child_frame_id"`
	Transform    Transform `json:"transform"`
}

// TFMessage is a batch of stamped transforms.
type TFMessage struct {
	Transforms []TransformStamped `json:"transforms"`
}
