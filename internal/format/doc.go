// Package format identifies array file containers by their signatures.
//
// # Signatures
//
// HDF5 files (and netCDF-4 files, which are HDF5 containers) carry an
// 8-byte signature at the start of the superblock:
// 0x89 H D F \r \n 0x1a \n. The superblock normally sits at offset 0 but
// may follow a user block, so [Detect] also checks offsets 512, 1024 and
// 2048.
//
// Classic netCDF files start with "CDF" followed by a version byte:
//
//	Version | Kind
//	--------|------------------------------
//	1       | Classic (CDF-1)
//	2       | Offset64 (CDF-2, 64-bit offsets)
//	5       | Data64 (CDF-5, 64-bit data types)
//
// Backends use the detected [Kind] to pick a reader.
package format
