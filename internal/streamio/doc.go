// Package streamio provides the buffered, position-tracking cursors used to
// write and read archive files.
//
// The writer buffers an entry until the caller commits it and can discard an
// uncommitted entry by seeking the underlying file back to the entry start.
// The reader tracks the logical offset of the next byte and can reposition
// the underlying file, which lets a duplicate entry replay earlier content
// and then resume where it left off.
package streamio
