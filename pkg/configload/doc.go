// Package configload parses a raw-configuration document — a mapping from
// provided name to that producer's configuration — from CUE or YAML sources.
// It is a host-side convenience: the container itself never loads files and
// never interprets configuration content.
package configload
