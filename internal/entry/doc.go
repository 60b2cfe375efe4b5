// Package entry encodes and decodes the records of a dpack archive.
//
// An archive is a flat sequence of records with no header or trailer. Every
// record except leave-directory starts with a header:
//
//	u8 type | u16 name_len | name_len bytes of name
//
// followed by a type-specific payload:
//
//	regular          u32 content_len | content_len bytes
//	duplicate        u64 offset of the original's content_len field
//	symlink          u16 target_len | target_len bytes of literal target
//	directory        (none)
//	leave-directory  u8 type | u16 depth_decrease   (no name)
//
// All integers are little-endian.
package entry
