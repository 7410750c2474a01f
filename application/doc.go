// Package application drives a match between two devices.
//
// A Coordinator runs the per-round state machine on top of a Messenger:
//
//	ChooseMove -> Sent -> AwaitBoth -> Resolved -> RoundDone -> ChooseMove
//	                                                        \-> MatchOver
//
// Every call to Step performs at most one transition, or one poll of the
// radio while waiting in AwaitBoth, and never blocks except to ask the
// InputSource for a move. Run loops Step until the match is over.
//
// A Match wires everything for one game: it asks for the opponent, derives
// the channel, configures the radio, records every round in a ledger and
// publishes its progress on a StatusBoard.
package application
