// Package battle owns one battle's roster and turn state and exposes the
// intent API that presentation code drives.
package battle

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/board"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/turn"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

var (
	// ErrNotYourTurn is returned for intents issued outside the caller's turn.
	ErrNotYourTurn = errors.New("not your turn")
	// ErrIllegalMove is returned when the board rejects a move.
	ErrIllegalMove = errors.New("illegal move")
	// ErrAlreadyMoved is returned when a unit tries to move twice in one turn.
	ErrAlreadyMoved = errors.New("unit already moved this turn")
	// ErrGameOver is returned for intents issued after the battle ended.
	ErrGameOver = errors.New("battle is over")
	// ErrUnitNotFound is returned for units not in this battle's roster.
	ErrUnitNotFound = errors.New("unit not found")
	// ErrNotHero is returned when a non-HERO unit is asked to use a skill.
	ErrNotHero = errors.New("only heroes use skills")
	// ErrDefaultSkill is returned when reserving the skill a hero's plain
	// strike already uses.
	ErrDefaultSkill = errors.New("default skill needs no reservation")
)

// Listener receives presentation events. Callbacks run while the session is
// locked and must not call back into it.
type Listener interface {
	OnCombatLog(text string, source unit.Faction)
	OnUnitDied(u *unit.Unit)
	OnGameOver(victory bool)
}

// NopListener ignores every event.
type NopListener struct{}

func (NopListener) OnCombatLog(string, unit.Faction) {}
func (NopListener) OnUnitDied(*unit.Unit)            {}
func (NopListener) OnGameOver(bool)                  {}

// Options configures a Session. Zero values select defaults.
type Options struct {
	// Board defaults to 8x8.
	Board board.Board
	// Catalog defaults to skill.Builtin().
	Catalog *skill.Catalog
	// Scorer defaults to ai.HeuristicScorer.
	Scorer ai.Scorer
	// AutoHeal defaults to combat.DefaultAutoHeal.
	AutoHeal int
	// Start is the faction that acts first.
	Start    unit.Faction
	Logger   *zap.Logger
	Listener Listener
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Board.Width <= 0 || o.Board.Height <= 0 {
		o.Board = board.New(8, 8)
	}
	if o.Catalog == nil {
		o.Catalog = skill.Builtin()
	}
	if o.AutoHeal <= 0 {
		o.AutoHeal = combat.DefaultAutoHeal
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Listener == nil {
		o.Listener = NopListener{}
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// Session is one battle in progress.
//
// Invariant: Roster, Turn, Resolver and Decider are non-nil and share the
// same roster for the session's lifetime.
type Session struct {
	ID       string
	Roster   *unit.Roster
	Turn     *turn.Machine
	Resolver *combat.Resolver
	Decider  *ai.Decider
	// Player is the human-controlled faction.
	Player unit.Faction

	mu        sync.Mutex
	listener  Listener
	logger    *zap.Logger
	clock     func() time.Time
	moved     map[*unit.Unit]bool
	announced bool
	started   time.Time
	finished  time.Time
}

// NewSession wires a roster into a ready-to-play session.
//
// Precondition: roster must not be nil.
func NewSession(id string, roster *unit.Roster, player unit.Faction, opts Options) *Session {
	opts = opts.withDefaults()
	tm := turn.New(opts.Start)
	res := combat.NewResolver(opts.Board, roster, opts.Catalog, tm, player)
	res.AutoHeal = opts.AutoHeal
	logger := opts.Logger.With(zap.String("battle", id))
	return &Session{
		ID:       id,
		Roster:   roster,
		Turn:     tm,
		Resolver: res,
		Decider:  ai.NewDecider(res, opts.Scorer, logger),
		Player:   player,
		listener: opts.Listener,
		logger:   logger,
		clock:    opts.Clock,
		moved:    make(map[*unit.Unit]bool),
		started:  opts.Clock(),
	}
}

// Over reports whether the battle has ended.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Turn.Over()
}

// Winner returns the winning faction once the battle is over.
func (s *Session) Winner() (unit.Faction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Turn.Winner()
}

// Elapsed returns the battle's running time, frozen once it ends.
func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished.IsZero() {
		return s.finished.Sub(s.started)
	}
	return s.clock().Sub(s.started)
}

// HasMoved reports whether u already moved this turn.
func (s *Session) HasMoved(u *unit.Unit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moved[u]
}

// checkPlayerUnit validates an intent on u by the player.
func (s *Session) checkPlayerUnit(u *unit.Unit) error {
	if s.Turn.Over() {
		return ErrGameOver
	}
	if u == nil || s.Roster.ByID(u.ID) != u || !u.IsAlive() {
		return ErrUnitNotFound
	}
	if u.Faction != s.Player || !s.Turn.IsMyTurn(s.Player) {
		return ErrNotYourTurn
	}
	return nil
}

func (s *Session) reject(intent string, u *unit.Unit, err error) error {
	fields := []zap.Field{zap.String("intent", intent), zap.Error(err)}
	if u != nil {
		fields = append(fields, zap.String("unit", u.Name))
	}
	s.logger.Info("battle: intent rejected", fields...)
	return err
}

// RequestMove moves the player's unit u to (x, y).
//
// Postcondition: on error nothing changed.
func (s *Session) RequestMove(u *unit.Unit, x, y int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayerUnit(u); err != nil {
		return s.reject("move", u, err)
	}
	if s.moved[u] {
		return s.reject("move", u, ErrAlreadyMoved)
	}
	events, ok := s.Resolver.Move(u, grid.Point{X: x, Y: y})
	if !ok {
		return s.reject("move", u, fmt.Errorf("%w: %s to (%d,%d)", ErrIllegalMove, u.Name, x, y))
	}
	s.moved[u] = true
	s.dispatch(events)
	return nil
}

// ReserveSkill stages skillID for the player's HERO u to spend on its next action.
func (s *Session) ReserveSkill(u *unit.Unit, skillID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayerUnit(u); err != nil {
		return s.reject("reserve", u, err)
	}
	if !u.IsHero() {
		return s.reject("reserve", u, ErrNotHero)
	}
	if u.Stat.Knows(skillID) && skillID == u.Stat.DefaultSkill() {
		return s.reject("reserve", u, fmt.Errorf("%w: %s", ErrDefaultSkill, skillID))
	}
	if err := u.Stat.Reserve(skillID, true); err != nil {
		return s.reject("reserve", u, fmt.Errorf("reserving %q: %w", skillID, err))
	}
	s.logger.Debug("battle: skill reserved", zap.String("unit", u.Name), zap.String("skill", skillID))
	return nil
}

// CastSkill casts skillID for the player's HERO u immediately.
func (s *Session) CastSkill(u *unit.Unit, skillID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkPlayerUnit(u); err != nil {
		return s.reject("cast", u, err)
	}
	if !u.IsHero() {
		return s.reject("cast", u, ErrNotHero)
	}
	if !u.Stat.Knows(skillID) {
		return s.reject("cast", u, fmt.Errorf("casting %q: %w", skillID, unit.ErrSkillNotLearned))
	}
	if u.Stat.Used(skillID) {
		return s.reject("cast", u, fmt.Errorf("casting %q: %w", skillID, unit.ErrSkillUsed))
	}
	s.dispatch(s.Resolver.ExecuteSkill(u, skillID))
	return nil
}

// ConfirmTurnEnd runs the player's automatic attack phase and passes the turn.
func (s *Session) ConfirmTurnEnd() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Turn.Over() {
		return s.reject("end_turn", nil, ErrGameOver)
	}
	if !s.Turn.IsMyTurn(s.Player) {
		return s.reject("end_turn", nil, ErrNotYourTurn)
	}
	s.dispatch(s.Resolver.ResolveAutoAttackPhase(s.Player))
	if !s.Turn.Over() {
		s.endTurn()
	}
	return nil
}

// RunAITurn plays the computer faction's turn: one decided action, the
// passive heal, then the turn ends. A failing or panicking decision is logged
// and the turn still ends so the battle never stalls.
func (s *Session) RunAITurn() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Turn.Over() {
		return ErrGameOver
	}
	faction := s.Player.Opponent()
	if !s.Turn.IsMyTurn(faction) {
		return ErrNotYourTurn
	}
	s.runAI(faction)
	if !s.Turn.Over() {
		s.endTurn()
	}
	return nil
}

func (s *Session) runAI(faction unit.Faction) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("battle: AI turn panicked; forcing end of turn", zap.Any("panic", r))
		}
	}()
	events, err := s.Decider.Step(faction)
	s.dispatch(events)
	if err != nil {
		s.logger.Warn("battle: AI turn failed; forcing end of turn", zap.Error(err))
		return
	}
	if s.Turn.Over() {
		return
	}
	s.dispatch(s.Resolver.ResolveAutoHeal(faction))
}

// dispatch forwards events to the listener. A fallen HERO ends the turn once
// every event of the resolution has been delivered.
func (s *Session) dispatch(events []combat.Event) {
	heroDown := false
	for _, ev := range events {
		switch ev.Kind {
		case combat.EventLog:
			s.logger.Debug("battle: event", zap.String("text", ev.Text), zap.Stringer("source", ev.Source))
			s.listener.OnCombatLog(ev.Text, ev.Source)
		case combat.EventDied:
			s.logger.Debug("battle: unit died", zap.String("unit", ev.Unit.Name), zap.Stringer("faction", ev.Unit.Faction))
			s.listener.OnUnitDied(ev.Unit)
			if ev.Unit.IsHero() {
				heroDown = true
			}
		}
	}
	if heroDown {
		s.endTurn()
	}
}

// endTurn clears the fallen and hands the turn over, announcing game over once.
func (s *Session) endTurn() {
	for _, u := range s.Roster.Cleanup() {
		s.logger.Debug("battle: removed from roster", zap.String("unit", u.Name))
	}
	res := s.Turn.EndTurn(s.Roster)
	if res.Flipped {
		s.moved = make(map[*unit.Unit]bool)
		s.logger.Debug("battle: turn passed", zap.Stringer("active", s.Turn.Active()), zap.Int("turn", s.Turn.Turn()))
	}
	if res.GameOver && !s.announced {
		s.announced = true
		s.finished = s.clock()
		victory := res.Winner == s.Player
		fields := []zap.Field{zap.Stringer("winner", res.Winner), zap.Bool("victory", victory)}
		if res.DeadHero != nil {
			fields = append(fields, zap.String("fallen", res.DeadHero.Name))
		}
		s.logger.Info("battle: game over", fields...)
		s.listener.OnGameOver(victory)
	}
}
