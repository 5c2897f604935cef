package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// LogKind classifies action log entries.
type LogKind string

const (
	KindAttack            LogKind = "attack"
	KindChooseSwing       LogKind = "choose_swing"
	KindRerollChance      LogKind = "reroll_chance"
	KindReactFocus        LogKind = "react_focus"
	KindDeclineInitiative LogKind = "decline_initiative"
	KindAddAuxiliary      LogKind = "add_auxiliary"
	KindDeclineAuxiliary  LogKind = "decline_auxiliary"
	KindAddReserve        LogKind = "add_reserve"
	KindDeclineReserve    LogKind = "decline_reserve"
	KindEndWinner         LogKind = "end_winner"
	KindEndDraw           LogKind = "end_draw"
	KindEndGame           LogKind = "end_game"
)

// DieChange is the before/after record of a single die.
type DieChange struct {
	Label    string `json:"label"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Captured bool   `json:"captured,omitempty"`
}

// AttackLog records one resolved attack.
type AttackLog struct {
	Type      attack.Type `json:"type"`
	Attacker  int         `json:"attacker"`
	Defender  int         `json:"defender"`
	Attackers []DieChange `json:"attackers,omitempty"`
	Defenders []DieChange `json:"defenders,omitempty"`
}

// LogEntry is one structured action log event.
type LogEntry struct {
	Time   time.Time      `json:"time"`
	State  State          `json:"state"`
	Kind   LogKind        `json:"kind"`
	Actor  int            `json:"actor"`
	Round  int            `json:"round"`
	Attack *AttackLog     `json:"attack,omitempty"`
	Swing  map[string]int `json:"swing,omitempty"`
	Dice   []DieChange    `json:"dice,omitempty"`
	Gained bool           `json:"gained,omitempty"`
	Scores []float64      `json:"scores,omitempty"`
}

func (g *Game) appendLog(e LogEntry) {
	e.Time = g.clock()
	e.State = g.state
	if e.Round == 0 {
		e.Round = g.RoundNumber()
	}
	g.log = append(g.log, e)
}

// ActionLog returns the entries not yet drained.
func (g *Game) ActionLog() []LogEntry { return append([]LogEntry(nil), g.log...) }

// DrainActionLog returns and clears the pending entries.
func (g *Game) DrainActionLog() []LogEntry {
	out := g.log
	g.log = nil
	return out
}

type prePositions struct {
	attackers []int
	defenders []int
}

func describeAll(attackers, defenders []*dice.Die) prePositions {
	var p prePositions
	for _, d := range attackers {
		p.attackers = append(p.attackers, d.Value)
	}
	for _, d := range defenders {
		p.defenders = append(p.defenders, d.Value)
	}
	return p
}

func buildAttackLog(a *Attack, pre prePositions, attackers, defenders []*dice.Die) *AttackLog {
	l := &AttackLog{Type: a.Type, Attacker: a.Attacker, Defender: a.Defender}
	for i, d := range attackers {
		l.Attackers = append(l.Attackers, DieChange{Label: d.Label(), Before: pre.attackers[i], After: d.Value})
	}
	for i, d := range defenders {
		l.Defenders = append(l.Defenders, DieChange{Label: d.Label(), Before: pre.defenders[i], After: d.Value, Captured: d.Captured})
	}
	return l
}

func playerName(names []string, idx int) string {
	if idx >= 0 && idx < len(names) && names[idx] != "" {
		return names[idx]
	}
	return fmt.Sprintf("Player %d", idx+1)
}

func dieList(cs []DieChange) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = fmt.Sprintf("%s:%d", c.Label, c.Before)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func formatScores(scores []float64) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%g", s)
	}
	return strings.Join(parts, " vs. ")
}

// FriendlyMessage renders e as narrative text for players. round and state
// describe the game at the time of rendering; swing choices of the current
// round stay hidden until dice are specified.
func (e LogEntry) FriendlyMessage(names []string, round int, state State) string {
	who := playerName(names, e.Actor)
	switch e.Kind {
	case KindAttack:
		return e.attackMessage(who)
	case KindChooseSwing:
		if e.Round == round && state <= StateSpecifyDice {
			return ""
		}
		parts := make([]string, 0, len(e.Swing))
		for _, k := range sortedKeys(e.Swing) {
			parts = append(parts, fmt.Sprintf("%s=%d", k, e.Swing[k]))
		}
		return fmt.Sprintf("%s set swing values: %s", who, strings.Join(parts, ", "))
	case KindRerollChance:
		msg := fmt.Sprintf("%s rerolled a chance die", who)
		for _, c := range e.Dice {
			msg += fmt.Sprintf(": %s rerolled %d => %d", c.Label, c.Before, c.After)
		}
		if e.Gained {
			return msg + "; " + who + " gained initiative"
		}
		return msg + "; " + who + " did not gain initiative"
	case KindReactFocus:
		parts := make([]string, len(e.Dice))
		for i, c := range e.Dice {
			parts[i] = fmt.Sprintf("%s from %d to %d", c.Label, c.Before, c.After)
		}
		return fmt.Sprintf("%s gained initiative by turning down focus dice: %s", who, strings.Join(parts, ", "))
	case KindDeclineInitiative:
		return fmt.Sprintf("%s chose not to try to gain initiative using chance or focus dice", who)
	case KindAddAuxiliary:
		return fmt.Sprintf("%s chose to use auxiliary dice", who)
	case KindDeclineAuxiliary:
		return fmt.Sprintf("%s chose not to use auxiliary dice", who)
	case KindAddReserve:
		if len(e.Dice) > 0 {
			return fmt.Sprintf("%s added a reserve die: %s", who, e.Dice[0].Label)
		}
		return fmt.Sprintf("%s added a reserve die", who)
	case KindDeclineReserve:
		return fmt.Sprintf("%s chose not to add a reserve die", who)
	case KindEndWinner:
		return fmt.Sprintf("%s won round %d (%s)", who, e.Round, formatScores(e.Scores))
	case KindEndDraw:
		return fmt.Sprintf("Round %d ended in a draw (%s)", e.Round, formatScores(e.Scores))
	case KindEndGame:
		return "The game has ended"
	}
	return fmt.Sprintf("%s: %s", who, e.Kind)
}

func (e LogEntry) attackMessage(who string) string {
	a := e.Attack
	if a == nil {
		return who + " attacked"
	}
	switch a.Type {
	case attack.Pass:
		return who + " passed"
	case attack.Surrender:
		return who + " surrendered"
	}
	msg := fmt.Sprintf("%s performed %s attack using %s against %s",
		who, a.Type, dieList(a.Attackers), dieList(a.Defenders))
	for _, c := range a.Defenders {
		msg += "; Defender " + c.Label
		if c.Captured {
			msg += " was captured"
		} else {
			msg += " was not captured"
		}
		if c.After != c.Before {
			msg += fmt.Sprintf(", rerolled %d => %d", c.Before, c.After)
		}
	}
	for _, c := range a.Attackers {
		msg += fmt.Sprintf("; Attacker %s rerolled %d => %d", c.Label, c.Before, c.After)
	}
	return msg
}
