// Package txn implements the transaction engine: it frames one request,
// exchanges it over a held bus, validates the CRC-16 that covers both the
// request and the reply, and performs the declarative trailing steps of the
// exchange (confirmation byte, settle delay).
//
// # Frame layouts
//
//	read block    [READ_OP  addr_lo addr_hi len]              -> len bytes + CRC
//	write block   [WRITE_OP addr_lo addr_hi len payload...]   -> CRC, confirm
//	extended      [EXT_OP   len-1 payload...]                 -> CRC, confirm, settle
//	erase address [ERASE_OP addr_lo addr_hi]                  -> CRC, confirm
//	query         [QUERY_OP]                                  -> 2 bytes + CRC
//
// The CRC trailer is transmitted by the device, inverted and low byte first,
// and is computed over the request bytes followed by the reply bytes, so a
// single checksum protects both directions.
//
// The engine never retries. Retry policy belongs to callers such as the flash
// controller.
package txn
