// Package hdf5 serves HDF5 files.
//
// Every group in the file becomes a structure in the dataset, and every
// dataset becomes a grid when its dimension scales name coordinate
// variables, or a plain array otherwise. Files are read with the pure-Go
// reader from go-native-netcdf; no C library is needed. Dataspace maximum
// extents, which that reader drops, are read separately so a dimension
// scale that can grow is reported as the unlimited dimension.
//
// # Limitations
//
// Compound, enum and opaque datasets are skipped with a warning.
package hdf5
