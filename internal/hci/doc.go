// Package hci holds the command and event catalog built on internal/param.
//
// Ownership boundary:
// - parameter types (addresses, handles, enums, masks)
// - command descriptors and command packet encoding
// - event packet decoding and typed event views
//
// Nothing here performs I/O; see internal/transport for the H4 link.
package hci
