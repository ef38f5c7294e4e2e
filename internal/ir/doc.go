// Package ir provides the value types shared by every pathfill package.
//
// This package contains type definitions and serialization only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Attribute values are scalars: IRString, IRInt or IRBool
//   - NO float types anywhere - use int64 for numbers
//   - Object iteration uses SortedKeys for deterministic output
//   - Canonical JSON (RFC 8785 key order, NFC strings) is the only format
//     used for hashing and for history records
package ir
