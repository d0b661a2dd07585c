package table

// idTable is an open-addressed hash map from a canonical (non-zero,
// top-bit-clear) uint32 key to an int32 value, with linear probing and
// tombstoned deletion: removing a key ORs in the tomb bit rather than
// zeroing the slot, so later lookups still probe past it to find a key
// that wrapped around during a prior insert.
type idTable struct {
	keys   []uint32
	values []int32
	width  uint32
	count  int
}

func nextPow2(n uint32) uint32 {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	return n + 1
}

func (t *idTable) reserve(count int) {
	if count < 16 {
		count = 16
	}
	newWidth := nextPow2(uint32(count))
	oldWidth := t.width
	if newWidth <= oldWidth {
		return
	}

	newKeys := make([]uint32, newWidth)
	newValues := make([]int32, newWidth)
	newMask := newWidth - 1

	for i := uint32(0); i < oldWidth; i++ {
		key := t.keys[i]
		if key == 0 || key&tombMask != 0 {
			continue
		}
		j := key
		for {
			j &= newMask
			if newKeys[j] == 0 {
				newKeys[j] = key
				newValues[j] = t.values[i]
				break
			}
			j++
		}
	}

	t.keys = newKeys
	t.values = newValues
	t.width = newWidth
}

// find returns the slot index holding key, or -1 if absent.
func (t *idTable) find(key uint32) int {
	if isEmptySlot(key) || t.width == 0 {
		return -1
	}
	mask := t.width - 1
	j := key
	for n := t.width; n > 0; n-- {
		j &= mask
		k := t.keys[j]
		if k == 0 {
			break
		}
		if k == key {
			return int(j)
		}
		j++
	}
	return -1
}

func (t *idTable) get(key uint32) (int32, bool) {
	i := t.find(key)
	if i < 0 {
		return 0, false
	}
	return t.values[i], true
}

// set overwrites the value for an existing key; reports whether key was present.
func (t *idTable) set(key uint32, value int32) bool {
	i := t.find(key)
	if i < 0 {
		return false
	}
	t.values[i] = value
	return true
}

// add inserts a new key; reports false if key was already present or invalid.
func (t *idTable) add(key uint32, value int32) bool {
	if isEmptySlot(key) || t.find(key) >= 0 {
		return false
	}
	t.reserve(t.count + 1)
	t.count++

	mask := t.width - 1
	j := key
	for {
		j &= mask
		if isEmptySlot(t.keys[j]) {
			t.keys[j] = key
			t.values[j] = value
			return true
		}
		j++
	}
}

// remove tombstones key's slot, returning its value and true if present.
func (t *idTable) remove(key uint32) (int32, bool) {
	i := t.find(key)
	if i < 0 {
		return 0, false
	}
	value := t.values[i]
	t.keys[i] |= tombMask
	t.values[i] = 0
	t.count--
	return value, true
}
