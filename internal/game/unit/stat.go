package unit

import "errors"

// ErrSkillNotLearned is returned when reserving a skill the stat block never learned.
var ErrSkillNotLearned = errors.New("skill not learned")

// ErrSkillUsed is returned when reserving a one-shot skill already spent this battle.
var ErrSkillUsed = errors.New("skill already used this battle")

// Stat is a unit's base values plus its per-battle skill state.
// It is not safe for concurrent use; the battle session serialises access.
type Stat struct {
	MaxHP   int
	Attack  int
	Counter int
	Move    int
	Range   int
	// Value is the roster score used by the AI and for battle rewards.
	Value int

	skills   []string
	used     map[string]bool
	reserved string
}

// Learn appends id to the learned skills if it is not already known.
// The first learned skill is the default skill.
func (s *Stat) Learn(ids ...string) {
	for _, id := range ids {
		if id == "" || s.Knows(id) {
			continue
		}
		s.skills = append(s.skills, id)
	}
}

// Skills returns a copy of the learned skill IDs in display order.
func (s *Stat) Skills() []string {
	out := make([]string, len(s.skills))
	copy(out, s.skills)
	return out
}

// DefaultSkill returns the first learned skill, or "" when none is learned.
func (s *Stat) DefaultSkill() string {
	if len(s.skills) == 0 {
		return ""
	}
	return s.skills[0]
}

// Knows reports whether id was learned.
func (s *Stat) Knows(id string) bool {
	for _, k := range s.skills {
		if k == id {
			return true
		}
	}
	return false
}

// Used reports whether id was spent this battle.
func (s *Stat) Used(id string) bool {
	return s.used[id]
}

// MarkUsed records id as spent for the rest of the battle.
func (s *Stat) MarkUsed(id string) {
	if s.used == nil {
		s.used = make(map[string]bool)
	}
	s.used[id] = true
}

// Reserve stages id for the unit's next action. When enforceUse is true the
// skill must not have been spent this battle.
//
// Postcondition: on success Reserved() returns (id, true); on error the
// previous reservation is untouched.
func (s *Stat) Reserve(id string, enforceUse bool) error {
	if !s.Knows(id) {
		return ErrSkillNotLearned
	}
	if enforceUse && s.Used(id) {
		return ErrSkillUsed
	}
	s.reserved = id
	return nil
}

// Reserved returns the staged skill, if any.
func (s *Stat) Reserved() (string, bool) {
	return s.reserved, s.reserved != ""
}

// ClearReservation drops any staged skill.
func (s *Stat) ClearReservation() { s.reserved = "" }

// ResetBattle clears the used flags and reservation at the start of a battle.
// Learned skills survive.
func (s *Stat) ResetBattle() {
	s.used = nil
	s.reserved = ""
}
