// Package profile holds the static description of the FIT protocol that the
// rest of the module is driven by.
//
// # Contents
//
//   - base types: width, signedness and the invalid bit pattern of each
//     wire type;
//   - global message numbers and their names;
//   - per-message field tables: number, name, base type, scale, offset,
//     units, profile type and alias;
//   - enumerated types behind the Lookup interface, built once at init;
//   - the date_time epoch and the semicircle angle unit;
//   - the nibble table CRC-16 used by headers and file trailers.
//
// The tables cover the messages the editor reads or synthesizes. Messages
// and fields missing from them still decode and re-encode unchanged; they
// are simply reported under their numbers with the name "unknown".
package profile
