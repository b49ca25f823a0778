// Package ncapi adapts groups read by the native netCDF/HDF5 readers to the
// handler source interfaces.
//
// The readers report only the length of a variable's first axis. The rest
// of the shape comes from the classic header's dimension table, or from
// the dataspaces passed with WithSpaces for HDF5 files; failing both, the
// first row is read once. Groups and variables are described on first use
// and cached by path. Variables whose element type has no array
// representation are skipped with a warning.
//
// All access to a file goes through one mutex: the readers share a seeking
// file handle between groups and are not safe for concurrent use.
package ncapi
