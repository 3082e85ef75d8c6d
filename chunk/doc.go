// Package chunk splits reads and writes that exceed a device's safe
// single-transaction size ("gulp") into consecutive block transactions.
//
// A transfer of length n with gulp g is issued as ceil(n/g) transactions at
// ascending, non-overlapping addresses, all under one bus session. The first
// failing transaction aborts the transfer; chunks already written stay
// written.
package chunk
