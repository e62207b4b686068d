// Package log wires the process-wide zerolog logger. Every other package
// gets its own child logger via WithComponent/WithReducer/WithAgent rather
// than logging through the global Logger directly, so log lines carry
// enough structure to filter by subsystem.
package log
