package entitypath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve_OverrideVerbatim(t *testing.T) {
	overrides := map[string]string{
		"/camera/image": "/robot/cam",
	}
	assert.Equal(t, "/robot/cam", Resolve("/camera/image", overrides))
	// Overrides are not normalized or flattened in any way
	overrides["/weird"] = "no-leading-slash"
	assert.Equal(t, "no-leading-slash", Resolve("/weird", overrides))
}

func TestResolve_Flattening(t *testing.T) {
	testCases := []struct {
		topic string
		want  string
	}{
		{"/a/b/c/d", "/topics/a-b-c/d"},
		{"/one/two/three/four", "/topics/one-two-three/four"},
		{"/single", "/topics/single"},
		{"/a/b", "/topics/a/b"},
		{"bare", "/topicsbare"},
		{"", "/topics"},
	}

	for _, tc := range testCases {
		t.Run(tc.topic, func(t *testing.T) {
			assert.Equal(t, tc.want, Resolve(tc.topic, nil))
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first := Resolve("/x/y/z", nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Resolve("/x/y/z", nil))
	}
}

func TestParent(t *testing.T) {
	testCases := []struct {
		path string
		want string
	}{
		{"/topics/cam/image", "/topics/cam"},
		{"/topics/cam", "/topics"},
		{"/leaf", ""},
		{"noslash", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.want, Parent(tc.path))
		})
	}
}
