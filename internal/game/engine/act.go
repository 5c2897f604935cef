package engine

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
)

// facts derives the transition inputs from the current game.
func (g *Game) facts() facts {
	f := facts{
		buttonsAssigned: true,
		buttonsLoaded:   true,
		diceInPlay:      g.active != nil,
		diceReady:       g.active != nil,
		initiativeSet:   g.initiativeHolder != NoPlayer,
		anyWaiting:      g.anyWaiting(),
		activePlayerSet: g.activePlayer != NoPlayer,
		attackCommitted: g.attackCommitted,
		roundOver:       g.nRecentPasses >= len(g.playerIDs) || g.surrendered != NoPlayer,
	}
	for p := range g.playerIDs {
		b := g.buttons[p]
		if b == nil || g.playerIDs[p] == "" {
			f.buttonsAssigned = false
			f.buttonsLoaded = false
			continue
		}
		if b.HasAuxiliary() {
			f.auxiliaryPending = true
		}
		if !b.Loaded() {
			f.buttonsLoaded = false
		}
		if g.reservePending[p] {
			f.reservePending = true
		}
		if g.scores[p].W >= g.maxWins {
			f.maxWinsReached = true
		}
	}
	if g.active != nil {
		for p := range g.playerIDs {
			if len(g.active[p]) == 0 {
				f.roundOver = true
			}
			for _, d := range g.active[p] {
				if !d.IsSpecified() || !d.IsRolled() {
					f.diceReady = false
				}
			}
		}
	}
	return f
}

// act performs the effects owned by the current state.
func (g *Game) act() error {
	switch g.state {
	case StateStartGame:
		for p, b := range g.buttons {
			g.waiting[p] = b == nil
		}
	case StateApplyHandicaps:
		// Handicaps are not modelled; tallies are initialised at construction.
	case StateChooseAuxiliaryDice:
		g.actChooseAuxiliary()
	case StateLoadDiceIntoButtons:
		return g.actLoadDice()
	case StateAddAvailableDiceToGame:
		g.actAddAvailableDice()
	case StateSpecifyDice:
		g.actSpecifyDice()
	case StateDetermineInitiative:
		if g.initiativeHolder == NoPlayer {
			holder, outright := g.determineInitiative()
			g.initiativeHolder = holder
			g.logger.Debug("initiative determined", zap.Int("holder", holder), zap.Bool("outright", outright))
		}
	case StateReactToInitiative:
		for p := range g.playerIDs {
			g.waiting[p] = p != g.initiativeHolder && !g.declined[p] && g.canReact(p)
		}
	case StateStartRound:
		return g.actStartRound()
	case StateStartTurn:
		return g.actStartTurn()
	case StateEndTurn:
		g.actEndTurn()
	case StateEndRound:
		g.actEndRound()
	case StateEndGame:
		g.resetPlayState()
		for p := range g.swingValues {
			g.swingValues[p] = map[string]int{}
		}
		if !g.endLogged {
			g.endLogged = true
			g.appendLog(LogEntry{Kind: KindEndGame, Actor: NoPlayer})
		}
	default:
		return fmt.Errorf("%w: unknown state %d", ErrInvariant, int(g.state))
	}
	return nil
}

func (g *Game) actChooseAuxiliary() {
	hasAux := false
	for _, b := range g.buttons {
		if b.HasAuxiliary() {
			hasAux = true
		}
	}
	if !hasAux {
		return
	}
	undecided := false
	for p, c := range g.auxChoices {
		g.waiting[p] = c == AuxUndecided
		if c == AuxUndecided {
			undecided = true
		}
	}
	if undecided {
		return
	}

	allAdd := true
	for _, c := range g.auxChoices {
		if c != AuxAdd {
			allAdd = false
		}
	}
	var union []string
	if allAdd {
		for _, b := range g.buttons {
			union = append(union, b.AuxiliaryTokens()...)
		}
	}
	for _, b := range g.buttons {
		b.ResolveAuxiliary(union)
	}
	g.logger.Debug("auxiliary dice resolved", zap.Bool("added", allAdd), zap.Strings("dice", union))
}

func (g *Game) actLoadDice() error {
	for p, b := range g.buttons {
		if !b.Loaded() {
			if err := b.Load(p); err != nil {
				return fmt.Errorf("%w: %v", ErrInvariant, err)
			}
		}
		if g.reservePending[p] && !b.HasReserve() {
			g.reservePending[p] = false
		}
		g.waiting[p] = g.reservePending[p]
	}
	return nil
}

func (g *Game) actAddAvailableDice() {
	if g.active != nil {
		return
	}
	g.active = make([][]*dice.Die, len(g.playerIDs))
	for p, b := range g.buttons {
		g.active[p] = b.InPlay()
		g.captured[p] = []*dice.Die{}
		req := map[string][]*dice.Die{}
		for _, d := range g.active[p] {
			if d.IsSwing() {
				req[d.SwingType] = append(req[d.SwingType], d)
			}
		}
		g.swingRequests[p] = req
	}
}

func (g *Game) actSpecifyDice() {
	for p := range g.playerIDs {
		g.waiting[p] = false
		req := g.swingRequests[p]
		if len(req) == 0 {
			continue
		}
		values := g.swingValues[p]
		missing := false
		for t := range req {
			if _, ok := values[t]; !ok {
				missing = true
			}
		}
		if missing {
			g.waiting[p] = true
			continue
		}
		for _, t := range sortedKeys(req) {
			bad := false
			for _, d := range req[t] {
				if err := d.SetSwingValue(values[t]); err != nil {
					bad = true
				}
			}
			if bad {
				msg := fmt.Sprintf("Invalid value submitted for swing die %s.", t)
				g.message = msg
				g.rejection = msg
				g.swingValues[p] = map[string]int{}
				for _, ds := range req {
					for _, d := range ds {
						d.Sides = 0
						d.Value = 0
					}
				}
				g.waiting[p] = true
				g.logger.Debug("swing value rejected", zap.Int("player", p), zap.String("swing", t))
				break
			}
		}
	}
	for p := range g.playerIDs {
		for _, d := range g.active[p] {
			if d.IsSpecified() && !d.IsRolled() {
				g.reroll(d)
			}
		}
	}
}

func (g *Game) actStartRound() error {
	if g.initiativeHolder == NoPlayer {
		return fmt.Errorf("%w: round started without an initiative holder", ErrInvariant)
	}
	g.activePlayer = g.initiativeHolder
	g.turn = 1
	for p := range g.playerIDs {
		g.declined[p] = false
		for _, d := range g.active[p] {
			if d.HasSkill(dice.Chance) {
				d.Disabled = false
			}
		}
	}
	return nil
}

func (g *Game) rejectAttack(reason string) {
	g.logger.Debug("attack rejected", zap.String("reason", reason), zap.Int("player", g.activePlayer))
	g.message = reason
	g.rejection = reason
	g.attack = nil
	g.waiting[g.activePlayer] = true
}

func (g *Game) actStartTurn() error {
	if g.attackCommitted {
		return nil
	}
	active := g.activePlayer
	if active == NoPlayer {
		return fmt.Errorf("%w: turn started without an active player", ErrInvariant)
	}
	if g.attack == nil && g.turn > 1 && g.autopass[active] {
		if types := g.ValidAttackTypes(); len(types) == 1 && types[0] == attack.Pass {
			g.attack = &Attack{Attacker: active, Defender: NoPlayer, Type: attack.Pass}
		}
	}
	a := g.attack
	if a == nil {
		g.waiting[active] = true
		return nil
	}

	resolver, attackers, defenders, reason := g.checkAttack(a)
	if reason != "" {
		g.rejectAttack(reason)
		return nil
	}
	b := board{g}

	pre := describeAll(attackers, defenders)
	g.turn++
	g.passedThisTurn = false
	if err := resolver.Commit(b, a.Attacker, attackers, defenders); err != nil {
		return fmt.Errorf("committing %s attack: %w", a.Type, err)
	}
	if g.passedThisTurn {
		g.nRecentPasses++
	} else {
		g.nRecentPasses = 0
	}
	g.appendLog(LogEntry{
		Kind:   KindAttack,
		Actor:  a.Attacker,
		Attack: buildAttackLog(a, pre, attackers, defenders),
	})
	g.logger.Debug("attack committed",
		zap.String("type", string(a.Type)),
		zap.Int("attacker", a.Attacker),
		zap.Int("defender", a.Defender),
		zap.Int("recent_passes", g.nRecentPasses),
	)

	g.activePlayer = (active + 1) % len(g.playerIDs)
	g.clearWaiting()
	g.message = ""
	g.attackCommitted = true
	return nil
}

// checkAttack resolves and validates a without changing the game. A non-empty
// reason explains the rejection.
func (g *Game) checkAttack(a *Attack) (attack.Attack, []*dice.Die, []*dice.Die, string) {
	if a.Attacker != g.activePlayer {
		return nil, nil, nil, "Attacker must be current active player."
	}
	if a.Defender == a.Attacker {
		return nil, nil, nil, "Attacker must not attack their own dice."
	}
	attackers, ok := g.resolveDice(a.Attacker, a.AttackerDice)
	if !ok {
		return nil, nil, nil, "Invalid attacking die."
	}
	defenders, ok := g.resolveDice(a.Defender, a.DefenderDice)
	if !ok {
		return nil, nil, nil, "Invalid defending die."
	}
	for _, d := range attackers {
		if d.Disabled {
			return nil, nil, nil, "Attempted to attack with a disabled die."
		}
	}
	resolver, ok := g.attacks.Get(a.Type)
	if !ok {
		return nil, nil, nil, fmt.Sprintf("Unknown attack type %s.", a.Type)
	}
	if !resolver.Validate(board{g}, attackers, defenders) {
		return nil, nil, nil, "Requested attack is not valid."
	}
	return resolver, attackers, defenders, ""
}

// IsValidAttack reports whether a would be accepted now. It changes nothing.
func (g *Game) IsValidAttack(a Attack) bool {
	if g.state != StateStartTurn || g.active == nil {
		return false
	}
	_, _, _, reason := g.checkAttack(&a)
	return reason == ""
}

// resolveDice maps die indices to player's active dice.
func (g *Game) resolveDice(player int, idx []int) ([]*dice.Die, bool) {
	if len(idx) == 0 {
		return nil, true
	}
	if player < 0 || player >= len(g.playerIDs) {
		return nil, false
	}
	ds := g.active[player]
	seen := map[int]bool{}
	out := make([]*dice.Die, 0, len(idx))
	for _, i := range idx {
		if i < 0 || i >= len(ds) || seen[i] {
			return nil, false
		}
		seen[i] = true
		out = append(out, ds[i])
	}
	return out, true
}

func (g *Game) actEndTurn() {
	if g.attack != nil {
		for _, d := range g.ActiveDice(g.attack.Attacker) {
			if d.Disabled && d.HasSkill(dice.Focus) {
				d.Disabled = false
			}
		}
	}
	g.attack = nil
	g.attackCommitted = false
}

func (g *Game) actEndRound() {
	if g.active == nil {
		return
	}
	round := g.RoundNumber()
	scores := g.roundScoresTimesTen()

	best := 0
	var top []int
	for p, s := range scores {
		if p == g.surrendered {
			continue
		}
		switch {
		case len(top) == 0 || s > best:
			best = s
			top = []int{p}
		case s == best:
			top = append(top, p)
		}
	}

	reported := make([]float64, len(scores))
	for i, s := range scores {
		reported[i] = float64(s) / 10
	}
	if len(top) > 1 {
		for p := range g.playerIDs {
			if p == g.surrendered {
				g.scores[p].L++
				continue
			}
			g.scores[p].D++
		}
		g.appendLog(LogEntry{Kind: KindEndDraw, Actor: NoPlayer, Round: round, Scores: reported})
	} else {
		winner := top[0]
		for p := range g.playerIDs {
			if p == winner {
				g.scores[p].W++
				continue
			}
			g.scores[p].L++
			g.swingValues[p] = map[string]int{}
			g.reservePending[p] = g.buttons[p].HasReserve()
		}
		g.appendLog(LogEntry{Kind: KindEndWinner, Actor: winner, Round: round, Scores: reported})
	}
	g.logger.Info("round ended",
		zap.Int("round", round),
		zap.Float64s("scores", reported),
		zap.Int("surrendered", g.surrendered),
	)

	g.resetPlayState()
	for _, b := range g.buttons {
		b.Unload()
	}
}
