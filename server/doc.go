// Package server serves array files over DAP2.
//
// A request names a file below the server root followed by a response
// suffix:
//
//	GET /data/climate.nc.dds                   structure
//	GET /data/climate.nc.das                   attributes
//	GET /data/climate.nc.ascii?tasmax[0:1:4]   values, one line per item
//	GET /data/climate.nc.json?lat,lon          metadata and values
//
// # Constraints
//
// A constraint is a comma-separated list of projections. Each projection
// is a dotted variable name followed by one DAP hyperslab per leading
// axis: [i], [start:stop] or [start:stride:stop], where stop is inclusive.
// A hyperslab on a grid applies to its array and to the map of the same
// axis. Selections after '&' are ignored.
//
// # Caching
//
// Opened files are kept in an LRU cache and closed on eviction. A cached
// file is reopened when its modification time changes. Requests are
// served one at a time because the file readers are not safe for
// concurrent use.
package server
