package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/vizbridge/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bridge.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const fullConfig = `
nats:
  url: nats://bus:4222
sink:
  url: ws://viewer:9877/record
metrics:
  listen: ":9090"
discovery:
  interval: 250ms
  prefix: robot
topic_to_entity_path:
  /camera/image: /robot/cam
extra_transform3ds:
  - entity_path: /calibration/lidar
    transform: [1, 0, 0, 0.5,
                0, 1, 0, 0.25,
                0, 0, 1, 1.5,
                0, 0, 0, 1]
    from_parent: true
extra_pinholes:
  - entity_path: /robot/cam
    image_from_camera: [500, 0, 320, 0, 500, 240, 0, 0, 1]
    width: 640
    height: 480
tf:
  update_rate: 10.0
  lookback: 2s
  tolerance: 50ms
  tree:
    map:
      odom:
        base_link:
urdf:
  entity_path: /robot
  file_path: file:///opt/robot/model.urdf
`

func TestLoad_FullDocument(t *testing.T) {
	cfg, err := Load(writeConfig(t, fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "nats://bus:4222", cfg.NATS.URL)
	assert.Equal(t, "ws://viewer:9877/record", cfg.Sink.URL)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, 250*time.Millisecond, cfg.Discovery.Interval.Std())
	assert.Equal(t, "robot", cfg.Discovery.Prefix)
	assert.Equal(t, "/robot/cam", cfg.TopicToEntityPath["/camera/image"])

	require.Len(t, cfg.ExtraTransforms, 1)
	assert.True(t, cfg.ExtraTransforms[0].FromParent)

	assert.Equal(t, 10.0, cfg.TF.UpdateRate)
	assert.Equal(t, 2*time.Second, cfg.TF.Lookback.Std())
	assert.Equal(t, 50*time.Millisecond, cfg.TF.Tolerance.Std())

	require.Contains(t, cfg.TF.Tree, "map")
	require.Contains(t, cfg.TF.Tree["map"], "odom")
	require.Contains(t, cfg.TF.Tree["map"]["odom"], "base_link")

	assert.Equal(t, "/robot", cfg.URDF.EntityPath)
}

func TestLoad_MinimalDocumentGetsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "sink:\n  url: ws://localhost:9877/record\n"))
	require.NoError(t, err)

	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
	assert.Equal(t, "vizbridge", cfg.NATS.Name)
	assert.Equal(t, -1, cfg.NATS.MaxReconnects)
	assert.Equal(t, 100*time.Millisecond, cfg.Discovery.Interval.Std())
	assert.Equal(t, "ros", cfg.Discovery.Prefix)
	assert.Equal(t, time.Second, cfg.TF.Lookback.Std())
	assert.Equal(t, 100*time.Millisecond, cfg.TF.Tolerance.Std())

	// Optional sections absent: features disabled, not errors
	assert.Empty(t, cfg.TopicToEntityPath)
	assert.Empty(t, cfg.ExtraTransforms)
	assert.Zero(t, cfg.TF.UpdateRate)
	assert.Empty(t, cfg.TF.Tree)
	assert.Empty(t, cfg.URDF.FilePath)
}

func TestLoad_MissingFileIsFatal(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestLoad_MalformedDocumentIsFatal(t *testing.T) {
	_, err := Load(writeConfig(t, "tf: [this is not\n  a mapping"))
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestLoad_ValidationFailures(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"missing sink url", "tf:\n  update_rate: 1.0\n"},
		{"negative update rate", "sink:\n  url: ws://x\ntf:\n  update_rate: -1.0\n"},
		{"multiple tf roots", "sink:\n  url: ws://x\ntf:\n  tree:\n    a:\n    b:\n"},
		{"short transform matrix", "sink:\n  url: ws://x\nextra_transform3ds:\n  - entity_path: /a\n    transform: [1, 2, 3]\n"},
		{"short pinhole matrix", "sink:\n  url: ws://x\nextra_pinholes:\n  - entity_path: /a\n    image_from_camera: [1]\n    width: 10\n    height: 10\n"},
		{"urdf without entity path", "sink:\n  url: ws://x\nurdf:\n  file_path: /model.urdf\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.doc))
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err))
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvNATSURL, "nats://override:4222")
	t.Setenv(EnvSinkURL, "ws://override:9877")

	cfg, err := Load(writeConfig(t, "sink:\n  url: ws://file:9877\n"))
	require.NoError(t, err)
	assert.Equal(t, "nats://override:4222", cfg.NATS.URL)
	assert.Equal(t, "ws://override:9877", cfg.Sink.URL)
}

func TestExtraTransform_Record(t *testing.T) {
	e := ExtraTransform{
		EntityPath: "/x",
		Transform: []float64{
			1, 2, 3, 10,
			4, 5, 6, 20,
			7, 8, 9, 30,
			0, 0, 0, 1,
		},
		FromParent: true,
	}

	rec := e.Record()
	assert.Equal(t, [3]float64{10, 20, 30}, rec.Translation)
	require.NotNil(t, rec.Mat3x3)
	// Row-major rotation block converted to column-major
	assert.Equal(t, [9]float64{1, 4, 7, 2, 5, 8, 3, 6, 9}, *rec.Mat3x3)
	assert.True(t, rec.FromParent)
	assert.Nil(t, rec.Quaternion)
}

func TestExtraPinhole_Record(t *testing.T) {
	e := ExtraPinhole{
		EntityPath:      "/cam",
		ImageFromCamera: []float64{500, 0, 320, 0, 501, 240, 0, 0, 1},
		Width:           640,
		Height:          480,
	}

	rec := e.Record()
	assert.Equal(t, [9]float64{500, 0, 0, 0, 501, 0, 320, 240, 1}, rec.ImageFromCamera)
	assert.Equal(t, uint32(640), rec.Width)
	assert.Equal(t, uint32(480), rec.Height)
}

func TestResolveModelPath(t *testing.T) {
	t.Run("file scheme stripped", func(t *testing.T) {
		got, err := ResolveModelPath("file:///opt/robot/model.urdf")
		require.NoError(t, err)
		assert.Equal(t, "/opt/robot/model.urdf", got)
	})

	t.Run("plain path passes through", func(t *testing.T) {
		got, err := ResolveModelPath("/opt/robot/model.urdf")
		require.NoError(t, err)
		assert.Equal(t, "/opt/robot/model.urdf", got)
	})

	t.Run("package resolved against search path", func(t *testing.T) {
		base := t.TempDir()
		modelDir := filepath.Join(base, "my_robot", "urdf")
		require.NoError(t, os.MkdirAll(modelDir, 0o755))
		model := filepath.Join(modelDir, "robot.urdf")
		require.NoError(t, os.WriteFile(model, []byte("<robot/>"), 0o600))
		t.Setenv(EnvPackagePath, base)

		got, err := ResolveModelPath("package://my_robot/urdf/robot.urdf")
		require.NoError(t, err)
		assert.Equal(t, model, got)
	})

	t.Run("unresolvable package is fatal", func(t *testing.T) {
		t.Setenv(EnvPackagePath, t.TempDir())
		_, err := ResolveModelPath("package://missing_pkg/model.urdf")
		require.Error(t, err)
		assert.True(t, errors.IsFatal(err))
	})

	t.Run("malformed package path is fatal", func(t *testing.T) {
		_, err := ResolveModelPath("package://nopathsep")
		require.Error(t, err)
		assert.True(t, errors.IsFatal(err))
	})
}
