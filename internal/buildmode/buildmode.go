// Package buildmode reports whether the launcher was built with the dev tag.
package buildmode

// DevServerURL is where a hand-started backend listens in dev builds.
const DevServerURL = "http://localhost:4000"

// Enabled reports whether dev mode is on, either compiled in or forced.
func Enabled(force bool) bool {
	return Dev || force
}
