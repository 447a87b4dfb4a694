// Package treecopy recursively copies a sub-application's build output into
// the aggregated bundle.
//
// The copier works directory by directory:
//
//   - the source must exist and be a directory, otherwise the copy fails
//     with *model.SourceMissingError before touching the filesystem
//   - the destination directory (and its parents) is created on demand
//   - subdirectories are copied recursively with the same overwrite policy
//   - regular files are copied byte for byte; with overwrite disabled an
//     existing destination file is left untouched and the skip is logged
//
// The first I/O failure aborts the remainder of the copy and is returned as
// *model.CopyError. Whatever was copied before the failure stays in place.
package treecopy
