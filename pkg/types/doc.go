/*
Package types defines the shared value types of the lock manager: lock
modes, two-phase-locking phases, job kinds, and the classified error
kinds a request can fail with.

These are intentionally small, string-less sum types (LockMode, Phase,
JobKind, ErrorKind) rather than bare bools or string constants, so a mode
or phase can never be mis-stringified across the dispatcher/worker
boundary. RequestError pairs an ErrorKind with a free-form Detail string,
mirroring the (error, error_info) pair the design uses throughout §7.
*/
package types
