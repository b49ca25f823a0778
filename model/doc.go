// Package model is the DAP2 dataset tree served for an open file.
//
// A [DatasetType] holds [StructureType] groups, [GridType] grids and
// [BaseType] leaves in file order. Every leaf carries a [data.View] over the
// variable it was built from, so the tree is cheap to build and only reads
// values when a response iterates a leaf.
//
// Nodes are addressed by dotted paths ("group.tasmax") through [Lookup] and
// visited with [Walk].
package model
