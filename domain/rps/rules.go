package rps

// Resolve computes the points of one round. The winner is decided by the
// distance of mine from theirs on the cycle Rock → Paper → Scissors:
// 0 is a draw, 1 means mine beats theirs, 2 means theirs beats mine.
// Both moves must be valid.
func Resolve(mine, theirs Move) (myPoint, theirPoint int) {
	diff := (int(mine) - int(theirs) + len(Moves)) % len(Moves)
	switch diff {
	case 1:
		return 1, 0
	case 2:
		return 0, 1
	default:
		return 0, 0
	}
}
