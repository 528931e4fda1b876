//go:build dev

package buildmode

// Dev builds expect the backend to be started by hand on DevServerURL.
const Dev = true
