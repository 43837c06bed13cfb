package content

// groupRange computes the half-open strand-id range [lo, hi) selected by a
// StrandGroupSelect(group, mag), per spec.md section 4.8/testable property
// 11: mask = (1<<mag)-1, range = [group &^ mask, (group | mask)+1).
func groupRange(group, mag uint64) [2]uint64 {
	mask := (uint64(1) << mag) - 1
	lo := group &^ mask
	hi := (group | mask) + 1
	return [2]uint64{lo, hi}
}

// inGroupRange reports whether strand is covered by a StrandGroupSelect(group, mag)
// without materializing the range, per the same property:
// strand_id ∈ range iff (strand_id ^ group) < (1<<mag).
func inGroupRange(strand, group, mag uint64) bool {
	return (strand ^ group) < (uint64(1) << mag)
}
