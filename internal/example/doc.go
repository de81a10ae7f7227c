// Package example declares records in doc.hrec and exercises the
// accessors generated for them.
package example

//go:generate go run github.com/smasher164/hrec/cmd/hrecgen
