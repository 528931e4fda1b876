//go:build !dev

package buildmode

const Dev = false
