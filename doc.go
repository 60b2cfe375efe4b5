// Package dpack archives a directory tree into a single flat binary file and
// restores it, storing identical regular-file contents only once.
//
// An archive is a plain sequence of records with no header, version or
// trailer; it ends where the file ends. Each record is one of:
//   - directory: descends into a new directory
//   - regular: a file with length-prefixed content
//   - duplicate: a file whose content equals an earlier regular record,
//     stored as the archive offset of that record's length field
//   - symlink: a link with its literal, unresolved target
//   - leave-directory: pops one or more directory levels
//
// All integers are little-endian.
//
// # Quick Start
//
// Pack a directory:
//
//	stats, err := dpack.Pack(ctx, "./src", "src.dpack")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(stats.Duplicates, "duplicate files", stats.Digest)
//
// Restore it elsewhere:
//
//	_, err = dpack.Unpack(ctx, "src.dpack", "./restored")
//
// # Failure Handling
//
// Pack is best effort: an entry that cannot be stored (unreadable file, name
// or content too long, device or socket node) is rolled back, logged and
// reported in [Stats.Failed], and packing continues with the next node.
//
// Unpack and List are all or nothing: the first malformed record or I/O
// failure aborts the call. Unpack leaves whatever it already created in
// place.
//
// Only names, types, regular-file contents and symlink targets are stored.
// Permissions, ownership and timestamps are not.
package dpack
