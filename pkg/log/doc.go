// Package log provides structured logging built on zerolog. The
// dispatcher, the facade and the RPC server each derive a child logger
// carrying a "component" field; each worker's logger carries its
// "worker" index instead. WithComponent builds such a "component"
// child logger from the global Logger.
package log
