// Package cli implements the dap command: a cobra command tree whose
// options are bound through viper to flags, DAP_ environment variables
// and an optional configuration file.
//
// # Commands
//
//	dap serve --root DIR --addr :8001   serve DIR over DAP2
//	dap info FILE [--json]              print the dataset tree of FILE
//	dap version                         print the version
package cli
