// Package h5meta reads the dataspace of every dataset in an HDF5 file.
//
// The netCDF-4/HDF5 reader used by the handlers drops a dataset's maximum
// dimensions, which are the only place HDF5 records that an axis can grow.
// This package walks the file's group structure on its own to recover them.
//
// # Supported structures
//
//   - Superblock versions 0 to 3, found at offset 0, 512, 1024 or 2048
//   - Version 1 object headers and version 2 ("OHDR") headers, including
//     continuation blocks
//   - Groups indexed by a symbol table (v1 B-tree and local heap)
//   - Groups whose links are stored in the header, or densely in a fractal
//     heap indexed by a version 2 B-tree
//
// Checksums are not verified. Shared header messages, soft links and
// external links are skipped.
//
// # Usage
//
//	spaces, err := h5meta.ReadFile("tas.nc")
//	sp := spaces["/tas"]
//	if sp.Growable(0) {
//		// the first axis is unlimited
//	}
package h5meta
