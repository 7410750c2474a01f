// Package network provides the radio side of a match: the channel two
// devices agree on and the radios that carry raw payloads over it.
//
// # Channel
//
// Negotiate derives the Channel of two devices from their identifiers. The
// derivation is symmetric, so both devices tune to the same channel without
// exchanging anything first.
//
// # Radios
//
// Radio is the abstract, non-blocking capability the protocol layer needs:
// tune to a channel key, send a payload, try to receive one. Absence of data
// is the normal case and is not reported as an error.
//
// Ether: an in-memory broadcast medium. Every radio of an Ether tuned to the
// same key hears every payload sent by the others. Loss, duplication and
// reordering can be injected to exercise the protocol.
//
// UDPRadio: a radio backed by UDP multicast on the local network. Frames
// carry the channel key and a per-radio sender key, so radios drop their own
// traffic and traffic sent on other channels, like a hardware radio filtering
// on its address.
package network
