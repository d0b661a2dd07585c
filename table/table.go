package table

import "github.com/vethanis/pimcore/syncx"

// Column is one typed data series inside a Table, grown and shrunk one
// row at a time as ids are added and removed.
type Column interface {
	length() int
	appendZero() int
	swapRemoveBack(at int)
}

// TypedColumn is the generic Column implementation backing every column a
// caller registers on a Table.
type TypedColumn[T any] struct {
	data []T
}

func NewTypedColumn[T any]() *TypedColumn[T] { return &TypedColumn[T]{} }

func (c *TypedColumn[T]) length() int { return len(c.data) }

func (c *TypedColumn[T]) appendZero() int {
	var zero T
	c.data = append(c.data, zero)
	return len(c.data) - 1
}

func (c *TypedColumn[T]) swapRemoveBack(at int) {
	last := len(c.data) - 1
	c.data[at] = c.data[last]
	var zero T
	c.data[last] = zero
	c.data = c.data[:last]
}

// At returns a pointer to row i's value, valid only while the caller
// holds the owning Table's lock.
func (c *TypedColumn[T]) At(i int) *T { return &c.data[i] }

// Table is a name-addressed row of typed columns. Rows are externally
// managed 32-bit ids resolved to a dense row index through an
// open-addressed id table; ColRemove relocates the last row into the
// freed slot across every column in lockstep.
type Table struct {
	mu        syncx.Mutex
	columns   map[uint32]Column
	rowIDs    []uint32 // index -> id, parallel to every column's length
	idToIndex idTable  // id -> index
	nextID    uint32
}

func NewTable() *Table {
	return &Table{columns: make(map[uint32]Column), nextID: 1}
}

// AddColumnType registers a column under typeHash if not already present.
func (t *Table) AddColumnType(typeHash uint32, factory func() Column) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.columns[typeHash]; ok {
		return false
	}
	col := factory()
	for range t.rowIDs {
		col.appendZero()
	}
	t.columns[typeHash] = col
	return true
}

func (t *Table) HasColumnType(typeHash uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.columns[typeHash]
	return ok
}

// Column returns the registered column for typeHash, or nil.
func (t *Table) Column(typeHash uint32) Column {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.columns[typeHash]
}

// ColAdd appends one new row across every registered column and returns
// its externally-visible id.
func (t *Table) ColAdd() uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx := len(t.rowIDs)
	for _, col := range t.columns {
		col.appendZero()
	}

	// ids stay odd, so canonicalHash(id) == id and no two ids share a key.
	id := t.nextID
	t.nextID += 2
	t.rowIDs = append(t.rowIDs, id)
	t.idToIndex.add(canonicalHash(id), int32(idx))
	return id
}

// ColRemove removes the row named by id, relocating the table's last row
// into its slot across every column, and fixing up the relocated row's
// id-to-index mapping. Reports whether id was present.
func (t *Table) ColRemove(id uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	idx32, ok := t.idToIndex.remove(canonicalHash(id))
	if !ok {
		return false
	}
	idx := int(idx32)

	back := len(t.rowIDs) - 1
	backID := t.rowIDs[back]
	for _, col := range t.columns {
		col.swapRemoveBack(idx)
	}
	if idx != back {
		t.rowIDs[idx] = backID
		t.idToIndex.set(canonicalHash(backID), int32(idx))
	}
	t.rowIDs = t.rowIDs[:back]
	return true
}

// RowIndex returns the dense row index currently backing id.
func (t *Table) RowIndex(id uint32) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	i, ok := t.idToIndex.get(canonicalHash(id))
	return int(i), ok
}

// Len returns the number of live rows.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rowIDs)
}

// Tables is a hash map of named Tables, keyed by a case-folded name hash.
type Tables struct {
	mu     syncx.RWLock
	byHash idTable
	tables []*Table
}

func NewTables() *Tables {
	return &Tables{}
}

// Get returns the table named hash, or nil.
func (ts *Tables) Get(hash uint32) *Table {
	ts.mu.LockRead()
	defer ts.mu.UnlockRead()
	if i, ok := ts.byHash.get(hash); ok {
		return ts.tables[i]
	}
	return nil
}

func (ts *Tables) GetNamed(name string) *Table { return ts.Get(HashString(name)) }

func (ts *Tables) Has(hash uint32) bool {
	ts.mu.LockRead()
	defer ts.mu.UnlockRead()
	_, ok := ts.byHash.get(hash)
	return ok
}

// Add creates and registers a new table under hash, or returns the
// existing one if already present.
func (ts *Tables) Add(hash uint32) *Table {
	ts.mu.LockWrite()
	defer ts.mu.UnlockWrite()

	if i, ok := ts.byHash.get(hash); ok {
		return ts.tables[i]
	}
	tb := NewTable()
	idx := len(ts.tables)
	ts.tables = append(ts.tables, tb)
	ts.byHash.add(hash, int32(idx))
	return tb
}

func (ts *Tables) AddNamed(name string) *Table { return ts.Add(HashString(name)) }

// Rm removes the table named hash. Reports whether it was present.
func (ts *Tables) Rm(hash uint32) bool {
	ts.mu.LockWrite()
	defer ts.mu.UnlockWrite()

	i, ok := ts.byHash.remove(hash)
	if !ok {
		return false
	}
	idx := int(i)
	back := len(ts.tables) - 1
	if idx != back {
		ts.tables[idx] = ts.tables[back]
		// the table that moved needs its hash remapped to idx. Tables does
		// not track reverse names, so its hash is found by scanning byHash
		// for the entry mapped to back; positions change on Rm, hashes do
		// not, which is why Get/Has/Add work by hash.
		for hk, hv := range ts.findAllWithIndex(back) {
			ts.byHash.set(hk, int32(idx))
			_ = hv
		}
	}
	ts.tables = ts.tables[:back]
	return true
}

// findAllWithIndex is a small helper scanning the backing idTable for the
// (at most one) key currently mapped to idx, used only by Rm's swap fixup.
func (ts *Tables) findAllWithIndex(idx int) map[uint32]int32 {
	out := make(map[uint32]int32, 1)
	for i, k := range ts.byHash.keys {
		if k == 0 || k&tombMask != 0 {
			continue
		}
		if int(ts.byHash.values[i]) == idx {
			out[k] = ts.byHash.values[i]
		}
	}
	return out
}
