// Package entitypath maps bus topic names to sink entity paths.
//
// Topics with an explicit override in the configuration keep it verbatim.
// Everything else is flattened so that leaf message names stay visually
// grouped by sensor without nesting the visualization tree too deep:
//
//	"/one/two/three/four" -> "/topics/one-two-three/four"
package entitypath

import "strings"

// Namespace is the prefix applied to all automatically flattened topic paths.
const Namespace = "/topics"

// Resolve returns the sink entity path for a topic. If overrides contains the
// topic it is returned verbatim; otherwise the flattening rule applies. Any
// string is a valid topic name; Resolve never fails.
func Resolve(topic string, overrides map[string]string) string {
	if path, ok := overrides[topic]; ok {
		return path
	}
	return Flatten(topic)
}

// Flatten applies the default flattening rule: the leading separator and the
// final segment are preserved, every interior separator becomes a hyphen, and
// the result is placed under Namespace.
func Flatten(topic string) string {
	last := strings.LastIndexByte(topic, '/')
	if last <= 0 {
		// No separator, or only the leading one: nothing interior to flatten.
		return Namespace + topic
	}
	interior := strings.ReplaceAll(topic[1:last], "/", "-")
	return Namespace + topic[:1] + interior + topic[last:]
}

// Parent derives the parent path by truncating at the last separator. A path
// without a separator has no parent and yields the empty string. Used when a
// topic's companion metadata (camera calibration, opportunistic transforms)
// belongs on the leaf's parent rather than the leaf itself.
func Parent(path string) string {
	last := strings.LastIndexByte(path, '/')
	if last < 0 {
		return ""
	}
	return path[:last]
}
