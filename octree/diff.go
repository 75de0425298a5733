package octree

import "slices"

// Diff returns the addresses stored in next but not in prev, and the ones
// stored in prev but not in next, both sorted with CompareAddresses. A nil
// prev is treated as empty.
func Diff[T, U any](prev *Octree[T], next *Octree[U]) (added, removed []Address) {
	if next != nil {
		for _, addr := range next.keys {
			if prev == nil || !prev.Contains(addr) {
				added = append(added, addr)
			}
		}
	}

	if prev != nil {
		for _, addr := range prev.keys {
			if next == nil || !next.Contains(addr) {
				removed = append(removed, addr)
			}
		}
	}

	slices.SortFunc(added, CompareAddresses)
	slices.SortFunc(removed, CompareAddresses)
	return added, removed
}
