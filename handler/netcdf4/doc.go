// Package netcdf4 serves netCDF files.
//
// The reader is chosen from the file signature:
//
//	Format                    | Reader
//	--------------------------|--------------------------------
//	classic, 64-bit offset    | github.com/ctessum/cdf
//	64-bit data (CDF-5)       | github.com/batchatco/go-native-netcdf
//	netCDF-4 (HDF5 container) | github.com/batchatco/go-native-netcdf
//
// Classic and CDF-5 files have a single record dimension, stored in the
// header with length zero. In netCDF-4 files the unlimited dimension is a
// dimension scale whose dataspace can grow, which is read from the HDF5
// metadata directly. Either way it is reported as the dataset's unlimited
// dimension, and rank-1 record variables are read in one block when
// iterated.
//
// CHAR variables become string arrays: the innermost axis, normally a
// string-length dimension, is folded into each string.
package netcdf4
