package console

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/skirmish/internal/frontend/telnet"
	"github.com/cory-johannsen/skirmish/internal/game/board"
	"github.com/cory-johannsen/skirmish/internal/game/command"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/skill"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
	"github.com/cory-johannsen/skirmish/internal/storage/postgres"
)

const cellWidth = 3

var classGlyphs = map[unit.Class]string{
	unit.ClassShield:  "S",
	unit.ClassArcher:  "A",
	unit.ClassKnight:  "K",
	unit.ClassChariot: "C",
	unit.ClassSaint:   "+",
	unit.ClassHero:    "H",
}

// factionColor returns the display color for units and log lines of f.
func factionColor(f, player unit.Faction) string {
	if f == player {
		return telnet.BrightCyan
	}
	return telnet.BrightRed
}

// RenderBoard draws the battlefield as a grid of class glyphs, row 0 on top.
// Player units are cyan, enemies red, and heroes bold.
func RenderBoard(b board.Board, roster *unit.Roster, player unit.Faction) []string {
	lines := make([]string, 0, b.Height+2)

	var header strings.Builder
	header.WriteString("   ")
	for x := 0; x < b.Width; x++ {
		header.WriteString(telnet.PadRight(fmt.Sprintf("%d", x), cellWidth))
	}
	lines = append(lines, telnet.Colorize(telnet.Dim, strings.TrimRight(header.String(), " ")))

	for y := 0; y < b.Height; y++ {
		var row strings.Builder
		row.WriteString(telnet.Colorize(telnet.Dim, telnet.PadRight(fmt.Sprintf("%d", y), cellWidth)))
		for x := 0; x < b.Width; x++ {
			row.WriteString(telnet.PadRight(cellGlyph(b.OccupantAt(roster, grid.Point{X: x, Y: y}), player), cellWidth))
		}
		lines = append(lines, strings.TrimRight(row.String(), " "))
	}
	lines = append(lines, telnet.Colorize(telnet.Dim, "S shield  A archer  K knight  C chariot  + saint  H hero"))
	return lines
}

func cellGlyph(u *unit.Unit, player unit.Faction) string {
	if u == nil {
		return telnet.Colorize(telnet.BrightBlack, ".")
	}
	glyph, ok := classGlyphs[u.Class]
	if !ok {
		glyph = "?"
	}
	color := factionColor(u.Faction, player)
	if u.IsHero() {
		color = telnet.Bold + color
	}
	return telnet.Colorize(color, glyph)
}

// PlayerUnits returns the player's living units in the order `units` numbers them.
func PlayerUnits(roster *unit.Roster, player unit.Faction) []*unit.Unit {
	return roster.LivingOf(player)
}

// RenderUnits lists the player's units numbered for commands, then the enemy.
func RenderUnits(roster *unit.Roster, player unit.Faction) []string {
	lines := []string{telnet.Colorize(telnet.BrightYellow, "Your forces:")}
	for i, u := range PlayerUnits(roster, player) {
		lines = append(lines, fmt.Sprintf("  %2d. %s", i+1, unitLine(u, player)))
	}
	lines = append(lines, telnet.Colorize(telnet.BrightYellow, "Enemy forces:"))
	for _, u := range roster.LivingOf(player.Opponent()) {
		lines = append(lines, "      "+unitLine(u, player))
	}
	return lines
}

func unitLine(u *unit.Unit, player unit.Faction) string {
	name := telnet.Colorize(factionColor(u.Faction, player), telnet.PadRight(u.Name, 14))
	return fmt.Sprintf("%s %-8s %-7s %s",
		name, u.Class, u.Pos, hpText(u))
}

func hpText(u *unit.Unit) string {
	text := fmt.Sprintf("%d/%d hp", u.HP, u.MaxHP())
	switch {
	case u.HP > u.MaxHP():
		return telnet.Colorize(telnet.BrightGreen, text)
	case u.HP*4 <= u.MaxHP():
		return telnet.Colorize(telnet.Red, text)
	case u.HP*2 <= u.MaxHP():
		return telnet.Colorize(telnet.Yellow, text)
	default:
		return text
	}
}

// RenderSkills lists u's learned skills with their state this battle.
func RenderSkills(u *unit.Unit, catalog *skill.Catalog) []string {
	lines := []string{telnet.Colorf(telnet.BrightYellow, "%s's skills:", u.Name)}
	ids := u.Stat.Skills()
	if len(ids) == 0 {
		return append(lines, telnet.Colorize(telnet.Dim, "  none"))
	}
	reserved, _ := u.Stat.Reserved()
	for i, id := range ids {
		d := catalog.Lookup(id)
		state := telnet.Colorize(telnet.Green, "ready")
		switch {
		case id == reserved:
			state = telnet.Colorize(telnet.BrightYellow, "reserved")
		case u.Stat.Used(id):
			state = telnet.Colorize(telnet.Dim, "spent")
		}
		tag := ""
		if i == 0 {
			tag = " (default)"
		}
		lines = append(lines, fmt.Sprintf("  %d. %s [%s] x%.1f %s%s  %s",
			i+1, telnet.Colorize(telnet.BrightCyan, d.Name), id, d.Multiplier, state, tag, d.Description))
	}
	return lines
}

// RenderLogLine colors a combat log line by the faction that caused it.
func RenderLogLine(text string, source, player unit.Faction) string {
	return telnet.Colorize(factionColor(source, player), text)
}

// RenderHelp lists the registry's commands grouped by category.
func RenderHelp(r *command.Registry) []string {
	cats := r.CommandsByCategory()
	var lines []string
	for _, cat := range []string{command.CategoryBattle, command.CategoryInfo, command.CategorySystem} {
		lines = append(lines, telnet.Colorf(telnet.BrightYellow, "%s commands:", strings.ToUpper(cat[:1])+cat[1:]))
		for _, cmd := range cats[cat] {
			lines = append(lines, fmt.Sprintf("  %s %s",
				telnet.Colorize(telnet.Green, telnet.PadRight(cmd.Usage, 24)), cmd.Help))
		}
	}
	return lines
}

// RenderRecords shows the player's currency and best clear times.
func RenderRecords(p *postgres.Progress, times []postgres.BestTime) []string {
	lines := []string{
		telnet.Colorf(telnet.BrightYellow, "%s's records:", p.Player),
		fmt.Sprintf("  Gold: %d", p.Currency),
	}
	if len(p.UnlockedSkills) > 0 {
		lines = append(lines, "  Unlocked skills: "+strings.Join(p.UnlockedSkills, ", "))
	}
	if len(times) == 0 {
		return append(lines, telnet.Colorize(telnet.Dim, "  No stage cleared yet."))
	}
	for _, bt := range times {
		lines = append(lines, fmt.Sprintf("  Level %d cleared in %s", bt.Level, bt.Duration.Round(time.Millisecond)))
	}
	return lines
}
