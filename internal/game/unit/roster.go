package unit

// Roster is the ordered live collection of units in one battle. Order is
// insertion order and drives every tie-break that falls back to roster order.
// It is not safe for concurrent use.
type Roster struct {
	units []*Unit
}

// NewRoster creates a roster holding units in the given order.
func NewRoster(units ...*Unit) *Roster {
	r := &Roster{}
	r.units = append(r.units, units...)
	return r
}

// Add appends u to the roster.
func (r *Roster) Add(u *Unit) { r.units = append(r.units, u) }

// Len returns the number of units, dead heroes included.
func (r *Roster) Len() int { return len(r.units) }

// All returns a snapshot of every unit in roster order.
func (r *Roster) All() []*Unit {
	out := make([]*Unit, len(r.units))
	copy(out, r.units)
	return out
}

// Living returns every living unit in roster order.
func (r *Roster) Living() []*Unit {
	var out []*Unit
	for _, u := range r.units {
		if u.IsAlive() {
			out = append(out, u)
		}
	}
	return out
}

// LivingOf returns every living unit of faction f in roster order.
func (r *Roster) LivingOf(f Faction) []*Unit {
	var out []*Unit
	for _, u := range r.units {
		if u.Faction == f && u.IsAlive() {
			out = append(out, u)
		}
	}
	return out
}

// EnemiesOf returns every living unit opposing u in roster order.
func (r *Roster) EnemiesOf(u *Unit) []*Unit {
	return r.LivingOf(u.Faction.Opponent())
}

// HeroOf returns faction f's HERO, alive or dead, or nil if the roster has none.
func (r *Roster) HeroOf(f Faction) *Unit {
	for _, u := range r.units {
		if u.Faction == f && u.IsHero() {
			return u
		}
	}
	return nil
}

// ByID returns the unit with the given ID, or nil.
func (r *Roster) ByID(id string) *Unit {
	for _, u := range r.units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// Cleanup removes dead non-hero units and returns them. Dead heroes stay in
// the roster so game-over detection can still find them.
//
// Postcondition: every remaining unit is alive or a HERO.
func (r *Roster) Cleanup() []*Unit {
	var removed []*Unit
	kept := r.units[:0]
	for _, u := range r.units {
		if !u.IsAlive() && !u.IsHero() {
			removed = append(removed, u)
			continue
		}
		kept = append(kept, u)
	}
	for i := len(kept); i < len(r.units); i++ {
		r.units[i] = nil
	}
	r.units = kept
	return removed
}
