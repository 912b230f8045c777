// Package schema is the configuration-validation collaborator. It checks a
// producer's merged configuration against a CUE schema and reports either a
// structured result or a hard error. The container treats it as opaque; it
// never interprets validation rules itself.
package schema
