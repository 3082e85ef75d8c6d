// Package property maps named device properties onto bus transactions.
//
// A Device is a declarative table of Property descriptions. Each property has
// a format, an optional aggregate shape and tagged read and write behaviors
// (memory block, fixed register, query, derived from a sibling, extended
// command, flash image, erase). The Registry holds devices by family code and
// resolves paths such as "910/duty1" or "eeprom/page.1" to a Handle; the
// Dispatcher executes reads and writes for a handle, either as typed Values
// or as the rendered text of the virtual file.
//
// Every dispatcher call holds the bus for the whole access, so multi-step
// accesses such as read-modify-write of a bit or an aggregate ALL read are
// never interleaved with other traffic on the same bus.
package property
