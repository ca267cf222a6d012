package bridge

import (
	"context"
	"encoding/json"

	"github.com/c360/vizbridge/bus"
	"github.com/c360/vizbridge/entitypath"
	"github.com/c360/vizbridge/message"
	"github.com/c360/vizbridge/sink"
)

// Depth image encodings: uint16 millimeters and float32 meters.
const (
	depthMillimeterEncoding = "16UC1"
	depthMeterEncoding      = "32FC1"
)

func (b *Bridge) decode(topic string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		b.metrics.RecordDecodeError(topic)
		if b.warnGate.Allow("decode:" + topic) {
			b.logger.Warn("Dropping undecodable message", "topic", topic, "error", err)
		}
		return false
	}
	return true
}

func (b *Bridge) forward(entityPath string, rec sink.Record, t float64) {
	if err := b.rec.Log(entityPath, rec, t); err != nil {
		if b.warnGate.Allow("sink:" + entityPath) {
			b.logger.Warn("Sink write failed", "entity_path", entityPath, "error", err)
		}
		return
	}
	b.metrics.RecordMessageForwarded(rec.Kind())
}

// imageHandler forwards raw images. When the topic has no explicit mapping
// and a frame tree exists, it also places the camera in the tree by looking
// up root to frame_id at the message stamp and logging the result at the
// entity path's parent.
func (b *Bridge) imageHandler(topic, path string, mapped bool) bus.Handler {
	return func(_ context.Context, data []byte) {
		var msg message.Image
		if !b.decode(topic, data, &msg) {
			return
		}
		b.metrics.RecordMessageReceived(topic, message.TypeImage)
		t := b.clock.Normalize(msg.Header.Stamp.Time())

		if !mapped && b.graph != nil && b.buffer != nil {
			tf, err := b.buffer.Lookup(b.graph.Root(), msg.Header.FrameID,
				msg.Header.Stamp.Time(), b.cfg.TF.Tolerance.Std())
			if err != nil {
				if b.warnGate.Allow("imagetf:" + topic) {
					b.logger.Warn("Camera placement lookup failed",
						"topic", topic, "frame", msg.Header.FrameID, "error", err)
				}
			} else {
				b.forward(entitypath.Parent(path), sink.FromTransform(tf), t)
			}
		}

		rec := sink.Image{
			Encoding: msg.Encoding,
			Width:    msg.Width,
			Height:   msg.Height,
			Data:     msg.Data,
		}
		switch msg.Encoding {
		case depthMillimeterEncoding:
			rec.Meter = 1000
		case depthMeterEncoding:
			rec.Meter = 1
		}
		b.forward(path, rec, t)
	}
}

// imuHandler plots linear acceleration as three scalar streams.
func (b *Bridge) imuHandler(topic, path string, _ bool) bus.Handler {
	return func(_ context.Context, data []byte) {
		var msg message.Imu
		if !b.decode(topic, data, &msg) {
			return
		}
		b.metrics.RecordMessageReceived(topic, message.TypeImu)
		t := b.clock.Normalize(msg.Header.Stamp.Time())

		b.forward(path+"/x", sink.Scalar{Value: msg.LinearAcceleration.X}, t)
		b.forward(path+"/y", sink.Scalar{Value: msg.LinearAcceleration.Y}, t)
		b.forward(path+"/z", sink.Scalar{Value: msg.LinearAcceleration.Z}, t)
	}
}

// poseHandler forwards the pose as a transform and drops a trajectory
// breadcrumb under /trajectories.
func (b *Bridge) poseHandler(topic, path string, _ bool) bus.Handler {
	return func(_ context.Context, data []byte) {
		var msg message.PoseStamped
		if !b.decode(topic, data, &msg) {
			return
		}
		b.metrics.RecordMessageReceived(topic, message.TypePoseStamped)
		t := b.clock.Normalize(msg.Header.Stamp.Time())

		b.forward(path, sink.FromPose(msg.Pose), t)
		b.forward("/trajectories"+path, sink.Points3D{
			Points: [][3]float64{{msg.Pose.Position.X, msg.Pose.Position.Y, msg.Pose.Position.Z}},
		}, t)
	}
}

func (b *Bridge) odometryHandler(topic, path string, _ bool) bus.Handler {
	return func(_ context.Context, data []byte) {
		var msg message.Odometry
		if !b.decode(topic, data, &msg) {
			return
		}
		b.metrics.RecordMessageReceived(topic, message.TypeOdometry)
		t := b.clock.Normalize(msg.Header.Stamp.Time())

		b.forward(path, sink.FromPose(msg.Pose), t)
	}
}

// cameraInfoHandler forwards pinhole intrinsics. An unmapped topic logs at
// the parent path, next to the image stream it calibrates.
func (b *Bridge) cameraInfoHandler(topic, path string, mapped bool) bus.Handler {
	return func(_ context.Context, data []byte) {
		var msg message.CameraInfo
		if !b.decode(topic, data, &msg) {
			return
		}
		b.metrics.RecordMessageReceived(topic, message.TypeCameraInfo)
		t := b.clock.Normalize(msg.Header.Stamp.Time())

		target := path
		if !mapped {
			target = entitypath.Parent(path)
		}
		b.forward(target, sink.Pinhole{
			ImageFromCamera: sink.ColumnMajor3x3(msg.K),
			Width:           msg.Width,
			Height:          msg.Height,
		}, t)
	}
}

// tfHandler feeds each batch entry into the transform history and forwards
// the ones whose child frame is part of the configured tree. Unmapped child
// frames get one throttled warning and are skipped; the rest of the batch
// still goes through.
func (b *Bridge) tfHandler(topic, _ string, _ bool) bus.Handler {
	return func(_ context.Context, data []byte) {
		var msg message.TFMessage
		if !b.decode(topic, data, &msg) {
			return
		}
		b.metrics.RecordMessageReceived(topic, message.TypeTFMessage)

		for _, entry := range msg.Transforms {
			stamp := entry.Header.Stamp.Time()
			b.buffer.Insert(entry.Header.FrameID, entry.ChildFrameID, stamp, entry.Transform)

			path, ok := b.graph.EntityPath(entry.ChildFrameID)
			if !ok {
				if b.warnGate.Allow("tfchild:" + entry.ChildFrameID) {
					b.logger.Warn("Transform for frame outside the configured tree",
						"child_frame", entry.ChildFrameID, "parent_frame", entry.Header.FrameID)
				}
				continue
			}
			if parent := b.graph.Parent(entry.ChildFrameID); entry.Header.FrameID != parent {
				if b.warnGate.Allow("tfparent:" + entry.ChildFrameID) {
					b.logger.Warn("Transform parent disagrees with the configured tree",
						"child_frame", entry.ChildFrameID,
						"declared_parent", entry.Header.FrameID,
						"tree_parent", parent)
				}
				continue
			}
			b.forward(path, sink.FromTransform(entry.Transform), b.clock.Normalize(stamp))
		}
	}
}
