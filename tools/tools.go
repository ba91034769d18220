//go:build tools

// Package tools pins the CLI tooling used by go:generate and local
// development to the module's go.mod.
package tools

import (
	_ "github.com/air-verse/air"
	_ "github.com/google/wire/cmd/wire"
	_ "github.com/swaggo/swag/cmd/swag"
	_ "go.uber.org/mock/mockgen"
)
