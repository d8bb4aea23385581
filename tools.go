//go:build tools
// +build tools

// Package tools pins the mockgen generator used by go:generate directives so
// that go.mod and go.sum carry it.
package gochathub

import (
	_ "go.uber.org/mock/mockgen"
)
