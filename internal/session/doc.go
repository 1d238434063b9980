// Package session keeps named mapping contexts: loaded tables, mapping
// definitions and an attached hierarchy forest.
//
// A Store owns the sessions. Creating a session loads and profiles its
// tables once; later calls work on that in-memory snapshot until the
// session is unloaded. Each Session guards its own state, so discovery,
// rollups and validations may run concurrently against one session while
// mutations (attaching mappings or a hierarchy) are serialized.
package session
