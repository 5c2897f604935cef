package engine

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// InitiativeAction names a reaction to losing initiative.
type InitiativeAction string

const (
	ReactChance  InitiativeAction = "chance"
	ReactFocus   InitiativeAction = "focus"
	ReactDecline InitiativeAction = "decline"
)

// InitiativeReaction is a player's response during REACT_TO_INITIATIVE.
// Dice are indices into the player's active dice; for focus, Values holds
// the new face of each die.
type InitiativeReaction struct {
	Action InitiativeAction `json:"action"`
	Dice   []int            `json:"dice,omitempty"`
	Values []int            `json:"values,omitempty"`
}

func (g *Game) checkPlayer(player int) error {
	if player < 0 || player >= len(g.playerIDs) {
		return fmt.Errorf("%w: no player at seat %d", ErrWrongState, player)
	}
	return nil
}

func (g *Game) expect(player int, state State) error {
	if err := g.checkPlayer(player); err != nil {
		return err
	}
	if g.state != state {
		return fmt.Errorf("%w: expected %s, game is in %s", ErrWrongState, state, g.state)
	}
	if !g.waiting[player] {
		return fmt.Errorf("%w: player %d is not being awaited", ErrWrongState, player)
	}
	return nil
}

// AssignButton gives an unassigned seat its button.
//
// Precondition: State() == StateStartGame and the seat has no button.
func (g *Game) AssignButton(player int, b *button.Button) error {
	if err := g.checkPlayer(player); err != nil {
		return err
	}
	if g.state != StateStartGame || g.buttons[player] != nil {
		return fmt.Errorf("%w: button already assigned for player %d", ErrWrongState, player)
	}
	if b == nil {
		return rejectInput("A button must be chosen.")
	}
	g.buttons[player] = b
	g.waiting[player] = false
	g.touch()
	return g.ProceedToNextUserAction()
}

// ReactToAuxiliary records a player's auxiliary dice choice. One decline
// removes the auxiliary dice for everybody.
func (g *Game) ReactToAuxiliary(player int, add bool) error {
	if err := g.expect(player, StateChooseAuxiliaryDice); err != nil {
		return err
	}
	if add {
		g.auxChoices[player] = AuxAdd
		g.waiting[player] = false
		g.appendLog(LogEntry{Kind: KindAddAuxiliary, Actor: player})
	} else {
		for p, c := range g.auxChoices {
			if c == AuxUndecided || p == player {
				g.auxChoices[p] = AuxDecline
			}
		}
		g.clearWaiting()
		g.appendLog(LogEntry{Kind: KindDeclineAuxiliary, Actor: player})
	}
	g.touch()
	return g.ProceedToNextUserAction()
}

// ReactToReserve lets a round loser add one reserve die, identified by its
// position in the button recipe, or decline.
func (g *Game) ReactToReserve(player int, recipeIdx int, add bool) error {
	if err := g.expect(player, StateLoadDiceIntoButtons); err != nil {
		return err
	}
	if add {
		b := g.buttons[player]
		if err := b.ActivateReserve(recipeIdx); err != nil {
			g.message = "Invalid reserve die."
			return rejectInput(err.Error())
		}
		tok := b.Tokens()[recipeIdx]
		g.appendLog(LogEntry{Kind: KindAddReserve, Actor: player, Dice: []DieChange{{Label: tok}}})
	} else {
		g.appendLog(LogEntry{Kind: KindDeclineReserve, Actor: player})
	}
	g.reservePending[player] = false
	g.waiting[player] = false
	g.touch()
	return g.ProceedToNextUserAction()
}

// SubmitSwingValues records a player's swing choices for this round.
//
// Precondition: State() == StateSpecifyDice and the player is awaited.
// Postcondition: on an InputError the values are discarded and the player
// is prompted again.
func (g *Game) SubmitSwingValues(player int, values map[string]int) error {
	if err := g.expect(player, StateSpecifyDice); err != nil {
		return err
	}
	want := sortedKeys(g.swingRequests[player])
	got := sortedKeys(values)
	if strings.Join(want, ",") != strings.Join(got, ",") {
		msg := fmt.Sprintf("Wrong swing values submitted: expected %s.", strings.Join(want, ", "))
		g.message = msg
		return rejectInput(msg)
	}

	chosen := make(map[string]int, len(values))
	for k, v := range values {
		chosen[k] = v
	}
	g.swingValues[player] = chosen
	g.rejection = ""
	mark := len(g.log)
	g.appendLog(LogEntry{Kind: KindChooseSwing, Actor: player, Swing: chosen})

	if err := g.ProceedToNextUserAction(); err != nil {
		return err
	}
	if g.rejection != "" {
		g.log = g.log[:mark]
		return rejectInput(g.rejection)
	}
	g.touch()
	return nil
}

// SubmitAttack stores a as the pending attack and runs the turn.
//
// Precondition: State() == StateStartTurn.
// Postcondition: on an InputError no dice changed and the active player is
// prompted again with Message() set.
func (g *Game) SubmitAttack(a Attack) error {
	if g.state != StateStartTurn {
		return fmt.Errorf("%w: expected %s, game is in %s", ErrWrongState, StateStartTurn, g.state)
	}
	if err := g.checkPlayer(a.Attacker); err != nil {
		return err
	}
	pending := a
	pending.AttackerDice = append([]int(nil), a.AttackerDice...)
	pending.DefenderDice = append([]int(nil), a.DefenderDice...)
	g.attack = &pending
	g.rejection = ""

	if err := g.ProceedToNextUserAction(); err != nil {
		return err
	}
	if g.rejection != "" {
		return rejectInput(g.rejection)
	}
	g.touch()
	return nil
}

// pollReactions refreshes which non-holders may still react.
func (g *Game) pollReactions() {
	for p := range g.playerIDs {
		g.waiting[p] = p != g.initiativeHolder && !g.declined[p] && g.canReact(p)
	}
}

// ReactToInitiative applies a chance reroll, a focus reduction, or a
// decline for a player who lost initiative.
func (g *Game) ReactToInitiative(player int, r InitiativeReaction) error {
	if err := g.expect(player, StateReactToInitiative); err != nil {
		return err
	}
	var err error
	switch r.Action {
	case ReactDecline:
		g.declined[player] = true
		g.appendLog(LogEntry{Kind: KindDeclineInitiative, Actor: player})
	case ReactChance:
		err = g.rerollChance(player, r)
	case ReactFocus:
		err = g.turnDownFocus(player, r)
	default:
		err = rejectInput(fmt.Sprintf("Unknown initiative action %q.", r.Action))
	}
	if err != nil {
		var ie *InputError
		if errors.As(err, &ie) {
			g.message = ie.Reason
		}
		return err
	}
	g.pollReactions()
	g.touch()
	return g.ProceedToNextUserAction()
}

func (g *Game) rerollChance(player int, r InitiativeReaction) error {
	if len(r.Dice) != 1 {
		return rejectInput("Exactly one chance die must be rerolled.")
	}
	ds, ok := g.resolveDice(player, r.Dice)
	if !ok {
		return rejectInput("Invalid die index.")
	}
	d := ds[0]
	if !d.HasSkill(dice.Chance) || d.Disabled {
		return rejectInput("Only an enabled chance die can be rerolled.")
	}
	before := d.Value
	g.reroll(d)
	for _, x := range g.active[player] {
		if x.HasSkill(dice.Chance) {
			x.Disabled = true
		}
	}
	holder, _ := g.determineInitiative()
	g.initiativeHolder = holder
	gained := holder == player
	if gained {
		g.reenableReactiveDice(player)
	}
	g.appendLog(LogEntry{
		Kind:   KindRerollChance,
		Actor:  player,
		Dice:   []DieChange{{Label: d.Label(), Before: before, After: d.Value}},
		Gained: gained,
	})
	g.logger.Debug("chance reroll", zap.Int("player", player), zap.Bool("gained", gained))
	return nil
}

func (g *Game) turnDownFocus(player int, r InitiativeReaction) error {
	if len(r.Dice) == 0 || len(r.Dice) != len(r.Values) {
		return rejectInput("Focus reaction needs one value per die.")
	}
	ds, ok := g.resolveDice(player, r.Dice)
	if !ok {
		return rejectInput("Invalid die index.")
	}
	override := make(map[*dice.Die]int, len(ds))
	for i, d := range ds {
		if !d.HasSkill(dice.Focus) || d.Disabled {
			return rejectInput("Only enabled focus dice can be turned down.")
		}
		v := r.Values[i]
		if v < d.Min() || v > d.Value {
			return rejectInput(fmt.Sprintf("Invalid value %d for focus die %s.", v, d.Label()))
		}
		override[d] = v
	}
	if !g.winsOutright(player, override) {
		return rejectInput("Focus dice not set low enough.")
	}

	var changes []DieChange
	for i, d := range ds {
		v := r.Values[i]
		if v < d.Value {
			changes = append(changes, DieChange{Label: d.Label(), Before: d.Value, After: v})
			d.Value = v
			d.Disabled = true
		}
	}
	g.initiativeHolder = player
	g.reenableReactiveDice(player)
	g.appendLog(LogEntry{Kind: KindReactFocus, Actor: player, Dice: changes, Gained: true})
	return nil
}

// SetAutopass toggles automatic passing for a player.
//
// Postcondition: LastActionTime() moves forward, like any other decision.
func (g *Game) SetAutopass(player int, on bool) error {
	if err := g.checkPlayer(player); err != nil {
		return err
	}
	g.autopass[player] = on
	g.touch()
	return nil
}

// AddChat queues a chat annotation, truncated to the configured length.
func (g *Game) AddChat(player int, message string) error {
	if err := g.checkPlayer(player); err != nil {
		return err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil
	}
	if utf8.RuneCountInString(message) > g.chatMax {
		message = string([]rune(message)[:g.chatMax])
	}
	g.chat = append(g.chat, ChatMessage{Player: player, Message: message, Time: g.clock()})
	return nil
}

// DrainChat returns and clears queued chat messages.
func (g *Game) DrainChat() []ChatMessage {
	out := g.chat
	g.chat = nil
	return out
}
