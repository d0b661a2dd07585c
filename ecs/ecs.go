// Package ecs implements the slab-based entity-component store: entities
// are generational ids, components live in fixed-capacity columnar slabs
// keyed by an exact flag signature, and relocation after destroy is
// handled by swap-with-back so every slab stays densely packed.
package ecs

import (
	"context"

	"github.com/vethanis/pimcore/genid"
	"github.com/vethanis/pimcore/obslog"
	"github.com/vethanis/pimcore/syncx"
	"github.com/vethanis/pimcore/task"
)

var log = obslog.Component("ecs")

// ComponentID names one column type, 0..63. Bit 0 is reserved: World sets
// it on every entity automatically, so callers should start their own ids
// at 1.
type ComponentID uint8

// EntityBit is the reserved component bit every slab implicitly carries;
// it has no Row of its own; the owning entity identity is tracked
// separately per slab (see slab.owner) since it is written by World
// itself rather than through a caller-supplied Row.
const EntityBit ComponentID = 0

// Flags is a signature of which components a slab (or a query) concerns.
type Flags uint64

func (f Flags) Has(id ComponentID) bool   { return f&(1<<id) != 0 }
func (f Flags) HasAll(all Flags) bool     { return f&all == all }
func (f Flags) HasNone(none Flags) bool   { return f&none == 0 }
func (f *Flags) Set(id ComponentID)       { *f |= 1 << id }
func (f Flags) WithEntityBit() Flags      { return f | (1 << EntityBit) }
func (f Flags) ExcludeEntityBit() Flags   { return f &^ (1 << EntityBit) }

// Entity is a generational id naming a live row across its whole life,
// independent of which slab or slot currently backs it.
type Entity = genid.ID

const slabCapacity = 1024

// RowFactory builds a fresh, slabCapacity-sized Row for a slab that
// carries the associated ComponentID.
type RowFactory func(capacity int) Row

type slab struct {
	mu     syncx.Mutex
	id     genid.ID
	length int32
	flags  Flags
	rows   map[ComponentID]Row
	owner  []Entity
}

// World owns the slab registry and the entity registry described in the
// design notes. Register every ComponentID's RowFactory before creating
// any entity that uses it.
type World struct {
	factories map[ComponentID]RowFactory
	scheduler *task.Scheduler

	slabCoord coordinator
	slabIDs   *genid.IdSet
	slabs     []*slab

	entsLock  syncx.RWLock
	entIDs    *genid.IdSet
	entSlab   []genid.ID
	entOffset []int32
}

// NewWorld constructs an empty world. s is used to run foreach as a task.
func NewWorld(s *task.Scheduler) *World {
	return &World{
		factories: make(map[ComponentID]RowFactory),
		scheduler: s,
		slabIDs:   genid.NewIdSet(),
		entIDs:    genid.NewIdSet(),
	}
}

// RegisterComponent associates a ComponentID with the factory used to
// build its Row whenever a new slab needs that column.
func (w *World) RegisterComponent(id ComponentID, factory RowFactory) {
	w.factories[id] = factory
}

func (w *World) newSlab(id genid.ID, flags Flags) *slab {
	s := &slab{id: id, flags: flags, rows: make(map[ComponentID]Row), owner: make([]Entity, slabCapacity)}
	for cid, factory := range w.factories {
		if flags.Has(cid) {
			s.rows[cid] = factory(slabCapacity)
		}
	}
	return s
}

// slabCreate appends a brand new slab under a global exclusive section
// (growing the slab slice can reallocate it, so every other section must
// be excluded, not just the lane it will occupy) and returns its id.
func (w *World) slabCreate(flags Flags) genid.ID {
	var id genid.ID
	w.slabCoord.WriteAll(func() {
		id = w.slabIDs.Alloc()
		s := w.newSlab(id, flags)
		if int(id.Index) == len(w.slabs) {
			w.slabs = append(w.slabs, s)
		} else {
			w.slabs[id.Index] = s
		}
	})
	log.Debug().Uint64("flags", uint64(flags)).Int32("slab_index", id.Index).Msg("slab created")
	return id
}

func (w *World) slabDestroy(id genid.ID) {
	w.slabCoord.WriteAll(func() {
		if w.slabIDs.Release(id) {
			w.slabs[id.Index] = nil
		}
	})
}

// Create allocates a new entity with the given component signature,
// placing it in a slab with a matching flag set and spare capacity,
// creating one if none exists.
func (w *World) Create(ctx context.Context, flags Flags) Entity {
	flags = flags.WithEntityBit()

	w.entsLock.LockWrite()
	entID := w.entIDs.Alloc()
	if int(entID.Index) == len(w.entSlab) {
		w.entSlab = append(w.entSlab, genid.ID{})
		w.entOffset = append(w.entOffset, 0)
	}
	w.entsLock.UnlockWrite()

	ent := entID

	var slabID genid.ID
	dstSlot := -1

	w.slabCoord.ReadAll(func() {
		for i := len(w.slabs) - 1; i >= 0; i-- {
			s := w.slabs[i]
			if s == nil || s.flags != flags {
				continue
			}
			s.mu.Lock()
			if int(s.length) < slabCapacity {
				slot := int(s.length)
				s.length++
				w.clearSlot(s, slot)
				s.owner[slot] = ent
				dstSlot = slot
				slabID = s.id
			}
			s.mu.Unlock()
			if dstSlot != -1 {
				break
			}
		}
	})

	for dstSlot == -1 {
		slabID = w.slabCreate(flags)
		w.slabCoord.ReadAll(func() {
			s := w.slabs[slabID.Index]
			s.mu.Lock()
			if int(s.length) < slabCapacity {
				slot := int(s.length)
				s.length++
				w.clearSlot(s, slot)
				s.owner[slot] = ent
				dstSlot = slot
			}
			s.mu.Unlock()
		})
	}

	w.entsLock.LockRead()
	w.entSlab[ent.Index] = slabID
	w.entOffset[ent.Index] = int32(dstSlot)
	w.entsLock.UnlockRead()

	return ent
}

func (w *World) clearSlot(s *slab, slot int) {
	for _, row := range s.rows {
		row.clear(slot)
	}
}

// Destroy releases the entity, relocating whichever entity occupied the
// back of its slab into the freed slot (swap-with-back), and destroys the
// slab entirely if it is now empty.
func (w *World) Destroy(entity Entity) {
	w.entsLock.LockWrite()
	defer w.entsLock.UnlockWrite()

	if !w.entIDs.Release(entity) {
		return
	}
	slabID := w.entSlab[entity.Index]
	offset := int(w.entOffset[entity.Index])

	var back int
	var backEnt Entity
	w.slabCoord.WriteLane(uint32(slabID.Index), func() {
		s := w.slabs[slabID.Index]
		s.mu.Lock()
		back = int(s.length) - 1
		s.length = int32(back)
		backEnt = s.owner[back]
		for _, row := range s.rows {
			row.copyWithin(offset, back)
		}
		s.owner[offset] = backEnt
		s.mu.Unlock()
	})

	if backEnt != entity {
		w.entOffset[backEnt.Index] = int32(offset)
	}

	if back == 0 {
		w.slabDestroy(slabID)
	}
}

// Has reports whether entity is current and its slab carries component id.
func (w *World) Has(entity Entity, id ComponentID) bool {
	return w.flagsOf(entity).Has(id)
}

func (w *World) flagsOf(entity Entity) Flags {
	w.entsLock.LockRead()
	defer w.entsLock.UnlockRead()

	if !w.entIDs.Current(entity) {
		return 0
	}
	slabID := w.entSlab[entity.Index]

	var flags Flags
	w.slabCoord.ReadLane(uint32(slabID.Index), func() {
		if w.slabIDs.Current(slabID) {
			flags = w.slabs[slabID.Index].flags
		}
	})
	return flags
}

// IsCurrent reports whether entity still names a live row.
func (w *World) IsCurrent(entity Entity) bool {
	w.entsLock.LockRead()
	defer w.entsLock.UnlockRead()
	return w.entIDs.Current(entity)
}

// SlabCount returns the length of the slab slice, used to size the foreach
// task. Slots of destroyed slabs stay in the slice as nil and are counted.
func (w *World) SlabCount() int {
	var n int
	w.slabCoord.ReadAll(func() { n = len(w.slabs) })
	return n
}

// ForeachFunc receives the matching slab's rows and its snapshot length.
type ForeachFunc func(rows map[ComponentID]Row, length int)

// Foreach submits a task across every live slab, invoking fn once per
// slab whose flags satisfy (has ⊇ all) ∧ (has ∩ none = ∅), under that
// slab's own lock so length and rows stay stable for the call's duration.
func (w *World) Foreach(ctx context.Context, all, none Flags, fn ForeachFunc) {
	worksize := int32(w.SlabCount())
	if worksize <= 0 {
		return
	}

	all = all.WithEntityBit()
	none = none.ExcludeEntityBit()

	t := task.New(nil)
	body := func(ctx context.Context, tk *task.Task, begin, end int32) {
		w.slabCoord.ReadAll(func() {
			for i := begin; i < end; i++ {
				s := w.slabs[i]
				if s == nil {
					continue
				}
				if !s.flags.HasAll(all) || !s.flags.HasNone(none) {
					continue
				}
				s.mu.Lock()
				length := int(s.length)
				if length > 0 {
					fn(s.rows, length)
				}
				s.mu.Unlock()
			}
		})
	}
	w.scheduler.Run(ctx, t, body, worksize)
}
