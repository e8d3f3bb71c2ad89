// Package console is the Telnet battle console: it greets a player, loads
// their progression, and turns typed commands into battle intents while
// rendering the board and the combat log.
package console

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/frontend/telnet"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/board"
	"github.com/cory-johannsen/skirmish/internal/game/command"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/stage"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

// ProgressStore is the progression persistence the console needs.
type ProgressStore interface {
	Get(ctx context.Context, player string) (*postgres.Progress, error)
	Save(ctx context.Context, p *postgres.Progress) error
	AddCurrency(ctx context.Context, player string, n int64) (int64, error)
	RecordBestTime(ctx context.Context, player string, level int, d time.Duration) (bool, error)
	BestTimes(ctx context.Context, player string) ([]postgres.BestTime, error)
}

// Options wires a Handler.
type Options struct {
	Battle   config.BattleConfig
	Stages   *stage.Library
	Catalog  *skill.Catalog
	Scorer   ai.Scorer
	Battles  *battle.Manager
	Progress ProgressStore
}

// Handler implements telnet.SessionHandler.
type Handler struct {
	opts     Options
	registry *command.Registry
	stage    *stage.Stage
	player   unit.Faction
	start    unit.Faction
}

var validName = regexp.MustCompile(`^[A-Za-z0-9_-]{1,24}$`)

const banner = `
` + telnet.Bold + telnet.BrightYellow + `  S K I R M I S H` + telnet.Reset + `
` + telnet.Dim + `  Two armies. One field. No retreat.` + telnet.Reset + `
`

// NewHandler validates opts and returns a Handler.
//
// Precondition: Stages, Catalog, Battles and Progress must be non-nil.
// Postcondition: Returns an error if the configured stage or starting faction is unknown.
func NewHandler(opts Options) (*Handler, error) {
	if opts.Stages == nil || opts.Catalog == nil || opts.Battles == nil || opts.Progress == nil {
		return nil, errors.New("console: stages, catalog, battles and progress are required")
	}
	st, ok := opts.Stages.Get(opts.Battle.Stage)
	if !ok {
		return nil, fmt.Errorf("console: unknown stage %q (have %s)", opts.Battle.Stage, strings.Join(opts.Stages.IDs(), ", "))
	}
	start, err := unit.ParseFaction(opts.Battle.StartingFaction)
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	return &Handler{
		opts:     opts,
		registry: command.DefaultRegistry(),
		stage:    st,
		player:   unit.FactionPlayer,
		start:    start,
	}, nil
}

// HandleSession implements telnet.SessionHandler.
//
// Postcondition: Returns nil on a clean quit, ctx.Err() on shutdown, or the
// connection error that ended the session. Any battle in progress is dropped.
func (h *Handler) HandleSession(ctx context.Context, conn *telnet.Conn, logger *zap.Logger) error {
	g := &game{h: h, ctx: ctx, conn: conn, logger: logger}
	defer g.abandon()

	if err := conn.Write([]byte(banner)); err != nil {
		return fmt.Errorf("sending banner: %w", err)
	}
	if err := g.login(); err != nil {
		return err
	}
	if err := g.begin(); err != nil {
		return err
	}
	return g.loop()
}

// feed collects session events between writes. The session calls it while
// locked, on the console goroutine.
type feed struct {
	player  unit.Faction
	lines   []string
	over    bool
	victory bool
}

func (f *feed) OnCombatLog(text string, source unit.Faction) {
	f.lines = append(f.lines, RenderLogLine(text, source, f.player))
}

// OnUnitDied is a no-op; the combat log already announces the fall.
func (f *feed) OnUnitDied(*unit.Unit) {}

func (f *feed) OnGameOver(victory bool) {
	f.over = true
	f.victory = victory
}

func (f *feed) drain() []string {
	out := f.lines
	f.lines = nil
	return out
}

// game is one connection's state.
type game struct {
	h      *Handler
	ctx    context.Context
	conn   *telnet.Conn
	logger *zap.Logger

	name     string
	progress *postgres.Progress
	level    int

	session *battle.Session
	feed    *feed
	bounty  int64
	boss    *unit.Unit
	settled bool
}

func (g *game) write(lines ...string) error {
	return g.conn.WriteLines(lines)
}

func (g *game) fail(msg string) {
	_ = g.conn.WriteLine(telnet.Colorize(telnet.Red, msg))
}

func (g *game) prompt() error {
	if g.session == nil {
		return g.conn.WritePrompt(telnet.Colorize(telnet.BrightWhite, "> "))
	}
	return g.conn.WritePrompt(telnet.Colorf(telnet.BrightCyan, "[%s T%d]> ", g.name, g.session.Turn.Turn()))
}

// login asks for a name and loads or creates that player's progression.
func (g *game) login() error {
	for {
		if err := g.conn.WritePrompt("What name do you fight under? "); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := g.conn.ReadLine()
		if err != nil {
			switch {
			case errors.Is(err, telnet.ErrLineTooLong):
				g.fail("That name is far too long.")
				continue
			case errors.Is(err, telnet.ErrInterrupted):
				return g.shutdown()
			}
			return fmt.Errorf("reading name: %w", err)
		}
		name := strings.TrimSpace(line)
		if !validName.MatchString(name) {
			g.fail("Use 1-24 letters, digits, '-' or '_'.")
			continue
		}
		g.name = name
		break
	}

	p, err := g.h.opts.Progress.Get(g.ctx, g.name)
	switch {
	case errors.Is(err, postgres.ErrProgressNotFound):
		p = &postgres.Progress{Player: g.name, UnlockedSkills: []string{}}
		if err := g.h.opts.Progress.Save(g.ctx, p); err != nil {
			return fmt.Errorf("creating progress for %q: %w", g.name, err)
		}
		g.logger.Info("new player", zap.String("player", g.name))
		_ = g.write(telnet.Colorf(telnet.Green, "Welcome, %s. Your first battle awaits.", g.name))
	case err != nil:
		return fmt.Errorf("loading progress for %q: %w", g.name, err)
	default:
		g.logger.Info("player returned", zap.String("player", g.name), zap.Int64("currency", p.Currency))
		_ = g.write(telnet.Colorf(telnet.Green, "Welcome back, %s. You hold %d gold.", g.name, p.Currency))
	}
	g.progress = p
	g.logger = g.logger.With(zap.String("player", g.name))
	return nil
}

// nextLevel is one past the highest level the player has cleared.
func (g *game) nextLevel() (int, error) {
	times, err := g.h.opts.Progress.BestTimes(g.ctx, g.name)
	if err != nil {
		return 0, fmt.Errorf("loading best times: %w", err)
	}
	level := 1
	for _, bt := range times {
		level = max(level, bt.Level+1)
	}
	return level, nil
}

// begin starts a battle at the player's next level.
func (g *game) begin() error {
	level, err := g.nextLevel()
	if err != nil {
		return err
	}
	g.level = level
	cfg := g.h.opts.Battle
	g.feed = &feed{player: g.h.player}
	heroStat := stage.HeroStat(g.progress.UnlockedSkills...)
	s, err := g.h.opts.Battles.Begin(g.h.stage, level, g.h.player, cfg.HeroName, heroStat, battle.Options{
		Board:    board.New(cfg.BoardWidth, cfg.BoardHeight),
		Catalog:  g.h.opts.Catalog,
		Scorer:   g.h.opts.Scorer,
		AutoHeal: cfg.AutoHeal,
		Start:    g.h.start,
		Logger:   observability.ForBattle(g.logger, g.h.stage.ID, level),
		Listener: g.feed,
	})
	if err != nil {
		return err
	}
	g.session = s
	g.settled = false
	g.boss = s.Roster.HeroOf(g.h.player.Opponent())
	g.bounty = 0
	for _, u := range s.Roster.LivingOf(g.h.player.Opponent()) {
		g.bounty += int64(u.Stat.Value)
	}

	lines := []string{
		"",
		telnet.Colorf(telnet.BrightYellow, "%s, level %d: %s stands against you.", g.h.stage.Name, level, g.boss.Name),
		telnet.Colorize(telnet.Dim, "Type 'help' for commands."),
	}
	lines = append(lines, RenderBoard(s.Resolver.Board, s.Roster, g.h.player)...)
	if err := g.write(lines...); err != nil {
		return err
	}
	if !s.Turn.IsMyTurn(g.h.player) {
		return g.aiTurn()
	}
	return nil
}

// abandon drops an unfinished battle from the manager.
func (g *game) abandon() {
	if g.session == nil {
		return
	}
	if err := g.h.opts.Battles.End(g.session.ID); err != nil {
		g.logger.Debug("battle already ended", zap.Error(err))
	}
	g.session = nil
}

// shutdown tells the player the server is going away.
func (g *game) shutdown() error {
	_ = g.conn.WriteLine(telnet.Colorize(telnet.Yellow, "The field falls silent. Server shutting down."))
	return g.ctx.Err()
}

func (g *game) loop() error {
	for {
		if g.ctx.Err() != nil {
			return g.shutdown()
		}
		if err := g.prompt(); err != nil {
			return fmt.Errorf("writing prompt: %w", err)
		}
		line, err := g.conn.ReadLine()
		if err != nil {
			switch {
			case errors.Is(err, telnet.ErrLineTooLong):
				g.fail("That command is too long.")
				continue
			case errors.Is(err, telnet.ErrInterrupted):
				return g.shutdown()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		cmd, parsed, err := g.h.registry.Interpret(line)
		var unknown *command.UnknownCommandError
		var usage *command.UsageError
		switch {
		case errors.Is(err, command.ErrEmptyLine):
			continue
		case errors.As(err, &unknown):
			g.fail(fmt.Sprintf("Unknown command %q. Type 'help'.", unknown.Word))
			continue
		case errors.As(err, &usage):
			g.fail("Usage: " + usage.Command.Usage)
			continue
		}

		quit, err := g.run(cmd, parsed)
		if err != nil {
			return err
		}
		if quit {
			g.logger.Info("player quit", zap.Duration("battle_time", g.session.Elapsed()))
			return nil
		}
	}
}

// run executes one command. Only connection failures are returned as errors.
func (g *game) run(cmd *command.Command, p command.ParseResult) (quit bool, err error) {
	s := g.session
	switch cmd.Handler {
	case command.HandlerBoard:
		return false, g.write(RenderBoard(s.Resolver.Board, s.Roster, g.h.player)...)
	case command.HandlerUnits:
		return false, g.write(RenderUnits(s.Roster, g.h.player)...)
	case command.HandlerSkills:
		u := s.Roster.HeroOf(g.h.player)
		if len(p.Args) > 0 {
			if u = g.findUnit(p.Args[0]); u == nil {
				return false, nil
			}
		}
		if u == nil {
			g.fail("Your hero has fallen.")
			return false, nil
		}
		return false, g.write(RenderSkills(u, g.h.opts.Catalog)...)
	case command.HandlerRecords:
		times, err := g.h.opts.Progress.BestTimes(g.ctx, g.name)
		if err != nil {
			g.logger.Error("loading best times", zap.Error(err))
			g.fail("Your records are unavailable right now.")
			return false, nil
		}
		return false, g.write(RenderRecords(g.progress, times)...)
	case command.HandlerHelp:
		return false, g.write(RenderHelp(g.h.registry)...)
	case command.HandlerMove:
		u := g.findUnit(p.Args[0])
		if u == nil {
			return false, nil
		}
		x, err := p.IntArg(1)
		if err != nil {
			g.fail(err.Error())
			return false, nil
		}
		y, err := p.IntArg(2)
		if err != nil {
			g.fail(err.Error())
			return false, nil
		}
		return false, g.intent(s.RequestMove(u, x, y))
	case command.HandlerReserve, command.HandlerCast:
		u := g.findUnit(p.Args[0])
		if u == nil {
			return false, nil
		}
		id := g.skillID(u, p.Args[1])
		if cmd.Handler == command.HandlerCast {
			return false, g.intent(s.CastSkill(u, id))
		}
		if err := s.ReserveSkill(u, id); err != nil {
			g.fail(describe(err))
			return false, nil
		}
		return false, g.write(telnet.Colorf(telnet.Green, "%s readies %s.", u.Name, g.h.opts.Catalog.Lookup(id).Name))
	case command.HandlerEnd:
		if err := g.intent(s.ConfirmTurnEnd()); err != nil {
			return false, err
		}
		if s.Over() || s.Turn.IsMyTurn(g.h.player) {
			return false, nil
		}
		return false, g.aiTurn()
	case command.HandlerNext:
		if !s.Over() {
			g.fail("The battle is still raging.")
			return false, nil
		}
		g.abandon()
		return false, g.begin()
	case command.HandlerQuit:
		_ = g.conn.WriteLine(telnet.Colorize(telnet.Cyan, "You leave the field. Farewell."))
		return true, nil
	}
	g.fail(fmt.Sprintf("You don't know how to %q.", cmd.Name))
	return false, nil
}

// intent reports a rejected intent to the player, or flushes the events of an
// accepted one. It settles the battle once it is over.
func (g *game) intent(err error) error {
	if err != nil {
		g.fail(describe(err))
		return nil
	}
	return g.flush()
}

// flush writes pending combat log lines and, once, the battle outcome.
func (g *game) flush() error {
	if err := g.write(g.feed.drain()...); err != nil {
		return err
	}
	if g.feed.over && !g.settled {
		return g.settle()
	}
	return nil
}

// aiTurn waits the configured delay, then lets the enemy act.
func (g *game) aiTurn() error {
	_ = g.write(telnet.Colorize(telnet.Dim, "The enemy is moving..."))
	if d := g.h.opts.Battle.AIDelay; d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-g.ctx.Done():
			return g.ctx.Err()
		case <-t.C:
		}
	}
	if err := g.session.RunAITurn(); err != nil {
		g.logger.Warn("AI turn skipped", zap.Error(err))
	}
	if err := g.flush(); err != nil {
		return err
	}
	if g.session.Over() {
		return nil
	}
	return g.write(RenderBoard(g.session.Resolver.Board, g.session.Roster, g.h.player)...)
}

// settle announces the outcome and, on victory, pays the bounty, unlocks the
// boss's skills and records the clear time.
func (g *game) settle() error {
	g.settled = true
	elapsed := g.session.Elapsed()
	if !g.feed.victory {
		g.logger.Info("battle lost", zap.Int("level", g.level), zap.Duration("elapsed", elapsed))
		return g.write(
			telnet.Colorize(telnet.Bold+telnet.Red, "DEFEAT. Your hero has fallen."),
			telnet.Colorize(telnet.Dim, "Type 'next' to try again or 'quit' to leave."),
		)
	}

	lines := []string{telnet.Colorf(telnet.Bold+telnet.BrightGreen, "VICTORY in %s!", elapsed.Round(time.Millisecond))}
	var learned []string
	for _, id := range g.boss.Stat.Skills() {
		if !slices.Contains(g.progress.UnlockedSkills, id) {
			g.progress.UnlockedSkills = append(g.progress.UnlockedSkills, id)
			learned = append(learned, g.h.opts.Catalog.Lookup(id).Name)
		}
	}
	if len(learned) > 0 {
		lines = append(lines, telnet.Colorf(telnet.BrightYellow, "Studying %s's technique, you learn: %s.", g.boss.Name, strings.Join(learned, ", ")))
	}

	failed := false
	if err := g.h.opts.Progress.Save(g.ctx, g.progress); err != nil {
		g.logger.Error("saving progress", zap.Error(err))
		failed = true
	}
	if balance, err := g.h.opts.Progress.AddCurrency(g.ctx, g.name, g.bounty); err != nil {
		g.logger.Error("adding currency", zap.Error(err))
		failed = true
	} else {
		g.progress.Currency = balance
		lines = append(lines, telnet.Colorf(telnet.Yellow, "You collect %d gold (%d total).", g.bounty, balance))
	}
	improved, err := g.h.opts.Progress.RecordBestTime(g.ctx, g.name, g.level, elapsed)
	switch {
	case err != nil:
		g.logger.Error("recording best time", zap.Error(err))
		failed = true
	case improved:
		lines = append(lines, telnet.Colorf(telnet.BrightCyan, "New best time for level %d!", g.level))
	}
	if failed {
		lines = append(lines, telnet.Colorize(telnet.Red, "Some of your progress could not be saved."))
	}
	g.logger.Info("battle won",
		zap.Int("level", g.level),
		zap.Duration("elapsed", elapsed),
		zap.Int64("bounty", g.bounty),
	)
	lines = append(lines, telnet.Colorize(telnet.Dim, "Type 'next' to march on or 'quit' to rest."))
	return g.write(lines...)
}

// findUnit resolves a player unit by its number in the units list, by name,
// or by the word "hero". It reports the failure itself and returns nil.
func (g *game) findUnit(arg string) *unit.Unit {
	units := PlayerUnits(g.session.Roster, g.h.player)
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 1 || n > len(units) {
			g.fail(fmt.Sprintf("No unit number %d. Type 'units'.", n))
			return nil
		}
		return units[n-1]
	}
	if strings.EqualFold(arg, "hero") {
		if hero := g.session.Roster.HeroOf(g.h.player); hero.IsAlive() {
			return hero
		}
	}
	for _, u := range units {
		if strings.EqualFold(u.Name, arg) {
			return u
		}
	}
	g.fail(fmt.Sprintf("You command no unit called %q.", arg))
	return nil
}

// skillID maps a skill number from the skills list to its ID; anything else
// is taken as an ID.
func (g *game) skillID(u *unit.Unit, arg string) string {
	if n, err := strconv.Atoi(arg); err == nil {
		if ids := u.Stat.Skills(); n >= 1 && n <= len(ids) {
			return ids[n-1]
		}
	}
	return strings.ToLower(arg)
}

// describe turns an intent rejection into player-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, battle.ErrNotYourTurn):
		return "It is not your turn."
	case errors.Is(err, battle.ErrAlreadyMoved):
		return "That unit has already moved this turn."
	case errors.Is(err, battle.ErrIllegalMove):
		return "That unit cannot move there."
	case errors.Is(err, battle.ErrGameOver):
		return "The battle is over. Type 'next' to fight again."
	case errors.Is(err, battle.ErrUnitNotFound):
		return "That unit is not on the field."
	case errors.Is(err, battle.ErrNotHero):
		return "Only heroes can use skills."
	case errors.Is(err, battle.ErrDefaultSkill):
		return "That is your hero's ordinary strike; it needs no reserving."
	case errors.Is(err, unit.ErrSkillNotLearned):
		return "Your hero has not learned that skill."
	case errors.Is(err, unit.ErrSkillUsed):
		return "That skill is already spent this battle."
	default:
		return err.Error()
	}
}
