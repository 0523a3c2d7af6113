package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteArgsForImplicitFind(t *testing.T) {
	assert.Equal(t,
		[]string{"class-finder", "find", "org.example.Demo"},
		rewriteArgsForImplicitFind([]string{"class-finder", "org.example.Demo"}))

	// value-taking global flags are skipped with their values
	assert.Equal(t,
		[]string{"class-finder", "--db", "/tmp/cf.pebble", "find", "org.example.Demo"},
		rewriteArgsForImplicitFind([]string{"class-finder", "--db", "/tmp/cf.pebble", "org.example.Demo"}))

	// --db=... is one token, and "stats" is a subcommand
	assert.Equal(t,
		[]string{"class-finder", "--db=/tmp/cf.pebble", "stats"},
		rewriteArgsForImplicitFind([]string{"class-finder", "--db=/tmp/cf.pebble", "stats"}))

	// an explicit subcommand is left alone
	assert.Equal(t,
		[]string{"class-finder", "find", "x.Y"},
		rewriteArgsForImplicitFind([]string{"class-finder", "find", "x.Y"}))

	// nothing to rewrite
	assert.Equal(t,
		[]string{"class-finder"},
		rewriteArgsForImplicitFind([]string{"class-finder"}))
	assert.Equal(t,
		[]string{"class-finder", "--debug"},
		rewriteArgsForImplicitFind([]string{"class-finder", "--debug"}))
}
