// Package util is the small utility belt the model layer and its tools lean
// on: ordered iteration, criterion sorting, cloning, default filling, deferred
// calls and debouncing.
package util
