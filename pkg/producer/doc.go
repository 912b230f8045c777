// Package producer defines the declarative contract a buildable unit
// implements: the name it provides, the names it requires or optionally
// wants, and the lifecycle hooks the container drives. It also provides the
// registry that maps provided names to producer definitions.
package producer
