// Package handler turns an open array file into a DAP dataset tree.
//
// Backends (see the hdf5 and netcdf4 subpackages) expose a file as a tree of
// [Group] and [Variable] values. [Build] walks that tree and produces a
// [model.DatasetType]:
//
//   - a rank-0 variable becomes a [model.BaseType];
//   - a variable with at least one axis backed by a coordinate variable (a
//     rank-1 variable named after the axis, found in the same group or an
//     ancestor) becomes a [model.GridType] holding the data array followed
//     by one map per coordinate axis;
//   - any other variable becomes a [model.BaseType] array;
//   - a subgroup becomes a [model.StructureType], built recursively.
//
// Every leaf's data is a [data.View] over the backend variable, so building
// the tree reads metadata only.
//
// Attributes whose values have no DAP type are dropped with a warning.
// [FindUnlimited] collects growable dimensions; a file with more than one
// fails with [ErrUnsupportedSchema].
//
// A [Handler] owns the open file. Closing it invalidates every view in its
// dataset.
package handler
