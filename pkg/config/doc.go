// Package config slices the host-supplied raw configuration per producer and
// deep-merges each producer's defaults underneath its slice. The content of
// configuration values is never interpreted here.
package config
