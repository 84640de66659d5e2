// Package ident generates human-readable business identifiers.
package ident

import (
	"fmt"
	"time"

	nanoid "github.com/jaevor/go-nanoid"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var suffix func() string

func init() {
	gen, err := nanoid.CustomASCII(alphabet, 9)
	if err != nil {
		panic(fmt.Sprintf("ident: nanoid generator: %v", err))
	}
	suffix = gen
}

// OrderNumber returns ORD-<unix millis>-<random>.
func OrderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix())
}

// SKU returns SKU-<unix millis>-<random> for products created without one.
func SKU(now time.Time) string {
	return fmt.Sprintf("SKU-%d-%s", now.UnixMilli(), suffix())
}
