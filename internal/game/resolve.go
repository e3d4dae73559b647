package game

import (
	"github.com/lox/powuno/internal/card"
	"github.com/lox/powuno/internal/deck"
)

// Apply validates and applies one move, producing the next version of the
// state and the result to broadcast. On rejection the state is unchanged
// (freeze counters excepted, see below) and a typed error is returned.
//
// Callers must serialize Apply calls per game instance.
func (g *Game) Apply(move Move) (*Result, error) {
	// Idempotent replay runs before anything else: a retried submission
	// must get its original result back even if the turn has since moved
	// on or the game has finished.
	if move.ClientMoveID != "" {
		if cached, ok := g.applied[appliedKey(move.By, move.ClientMoveID)]; ok {
			return cached, nil
		}
	}

	if g.status == StatusFinished {
		return nil, ErrGameOver
	}
	if g.status != StatusActive {
		return nil, ErrIllegalMove
	}
	if g.seatOf(move.By) < 0 {
		return nil, ErrUnknownPlayer
	}

	// Power moves are free actions; everything else belongs to the turn
	// owner.
	onTurn := move.By == g.CurrentPlayer()
	switch move.Kind {
	case MoveDrawPower:
		// Credit-gated, not turn-gated.
	case MovePlayPower:
		if !onTurn {
			return nil, ErrNotYourTurn
		}
	default:
		if !onTurn {
			return nil, ErrNotYourTurn
		}
	}

	// A player with an outstanding forced draw must absorb it or stack
	// onto it before anything else. Only the turn owner can be on the
	// hook, so off-turn power draws pass through. SET_COLOR is exempt:
	// a WILD_DRAW4 played without a color leaves the penalty owed by the
	// *next* player while the actor still has to finish their own move.
	if g.pendingDraw > 0 && onTurn && move.Kind != MoveSetColor && !resolvesPendingDraw(move) {
		return nil, ErrPendingDrawUnresolved
	}

	// Frozen players cannot take turn-consuming moves. Each rejected
	// own-turn attempt melts one unit of the freeze; this is the one
	// mutation a rejection is allowed to make.
	if (move.Kind == MovePlayBase || move.Kind == MoveDrawBase) && g.freezes[move.By] > 0 {
		g.freezes[move.By]--
		return nil, ErrPlayerFrozen
	}

	var (
		payload MovePayload
		err     error
	)
	switch move.Kind {
	case MovePlayBase:
		payload, err = g.applyPlayBase(move)
	case MoveDrawBase:
		payload, err = g.applyDrawBase(move)
	case MoveSetColor:
		payload, err = g.applySetColor(move)
	case MoveDrawPower:
		payload, err = g.applyDrawPower(move)
	case MovePlayPower:
		payload, err = g.applyPlayPower(move)
	default:
		err = ErrIllegalMove
	}
	if err != nil {
		return nil, err
	}

	return g.commit(move, payload), nil
}

// resolvesPendingDraw reports whether the move is an accepted answer to an
// outstanding penalty: drawing it, or stacking another DRAW2 / WILD_DRAW4
// on top.
func resolvesPendingDraw(move Move) bool {
	if move.Kind == MoveDrawBase {
		return true
	}
	if move.Kind == MovePlayBase && move.Card != nil {
		return move.Card.Rank == card.Draw2 || move.Card.Rank == card.WildDraw4
	}
	return false
}

// commit finalizes an accepted mutation: version bump, audit entry, win
// check, result caching.
func (g *Game) commit(move Move, payload MovePayload) *Result {
	g.version++
	g.lastMoveAt = g.now()

	record := MoveRecord{
		By:             move.By,
		Kind:           move.Kind,
		Payload:        payload,
		ClientMoveID:   move.ClientMoveID,
		At:             g.lastMoveAt,
		VersionApplied: g.version,
	}
	g.moves = append(g.moves, record)

	// Win condition: the actor's base hand reaching zero ends the game,
	// whether by a play or by a power effect that emptied it.
	if len(g.hands[move.By].Cards) == 0 {
		g.status = StatusFinished
		g.winner = move.By
	}

	hand, _ := g.HandView(move.By)
	result := &Result{
		Summary: g.Summary(),
		Hand:    hand,
		Record:  record,
	}
	if move.ClientMoveID != "" {
		g.applied[appliedKey(move.By, move.ClientMoveID)] = result
	}
	return result
}

func appliedKey(by, clientMoveID string) string {
	return by + "\x00" + clientMoveID
}

// applyPlayBase plays one base card from the actor's hand onto the discard
// pile and resolves its effect.
func (g *Game) applyPlayBase(move Move) (MovePayload, error) {
	if move.Card == nil {
		return MovePayload{}, ErrIllegalMove
	}
	// An unresolved wild on top (opening flip, or a wild played without a
	// color) blocks base plays until SET_COLOR lands.
	if g.currentColor == nil {
		return MovePayload{}, ErrIllegalMove
	}
	played := *move.Card

	hand := g.hands[move.By]
	idx := indexOfCard(hand.Cards, played)
	if idx < 0 {
		return MovePayload{}, ErrIllegalMove
	}

	if !card.Playable(played, g.discardTop, *g.currentColor) {
		return MovePayload{}, ErrIllegalMove
	}

	// Wilds need a color. It may ride along in the same move or arrive as
	// a follow-up SET_COLOR, during which the turn stays with the actor.
	if played.IsWild() && move.ChosenColor == nil {
		g.removeFromHand(hand, idx)
		g.pushBaseDiscard(played)
		g.currentColor = nil
		if played.Rank == card.WildDraw4 {
			g.pendingDraw += 4
		}
		g.awardPowerPoints(move.By, played.Rank)
		return MovePayload{BaseCard: &played}, nil
	}

	g.removeFromHand(hand, idx)
	g.pushBaseDiscard(played)

	payload := MovePayload{BaseCard: &played}

	// Colored cards, action or not, take over the active color.
	if !played.IsWild() {
		c := played.Color
		g.currentColor = &c
	}

	switch played.Rank {
	case card.Skip:
		g.advance(2)
	case card.Reverse:
		g.turn.Direction = -g.turn.Direction
		if len(g.players) == 2 {
			// Two-handed reverse is a skip: the actor keeps the turn.
			g.advance(2)
		} else {
			g.advance(1)
		}
	case card.Draw2:
		g.pendingDraw += 2
		g.advance(1)
	case card.Wild:
		c := *move.ChosenColor
		g.currentColor = &c
		payload.ChosenColor = &c
		g.advance(1)
	case card.WildDraw4:
		c := *move.ChosenColor
		g.currentColor = &c
		payload.ChosenColor = &c
		g.pendingDraw += 4
		g.advance(1)
	default:
		g.advance(1)
	}

	g.awardPowerPoints(move.By, played.Rank)
	return payload, nil
}

// applyDrawBase absorbs the pending penalty (or draws a single card when
// none is outstanding) and passes the turn.
func (g *Game) applyDrawBase(move Move) (MovePayload, error) {
	if g.currentColor == nil {
		return MovePayload{}, ErrIllegalMove
	}
	n := g.pendingDraw
	if n < 1 {
		n = 1
	}
	drawn := g.drawBase(n)
	hand := g.hands[move.By]
	hand.Cards = append(hand.Cards, drawn...)

	g.pendingDraw = 0
	g.advance(1)

	amount := len(drawn)
	return MovePayload{DrawAmount: &amount}, nil
}

// applySetColor is the second half of a wild played without a color choice.
// Any other use is redundant and rejected.
func (g *Game) applySetColor(move Move) (MovePayload, error) {
	if move.ChosenColor == nil {
		return MovePayload{}, ErrIllegalMove
	}
	if g.currentColor != nil || !g.discardTop.IsWild() {
		return MovePayload{}, ErrIllegalMove
	}
	c := *move.ChosenColor
	g.currentColor = &c
	// Completing the actor's own wild play consumes their turn. Choosing
	// the opening color after a wild genesis flip does not: nobody played
	// that card.
	if g.version > 0 {
		g.advance(1)
	}
	return MovePayload{ChosenColor: &c}, nil
}

// applyDrawPower redeems one earned power-card draw.
func (g *Game) applyDrawPower(move Move) (MovePayload, error) {
	if g.earnedDraws[move.By] < 1 {
		return MovePayload{}, ErrIllegalMove
	}
	drawn, ok := g.drawPower()
	if !ok {
		// Both power stacks exhausted. Reject and keep the credit so the
		// player can redeem it once cards cycle back in.
		return MovePayload{}, ErrIllegalMove
	}
	g.earnedDraws[move.By]--
	hand := g.hands[move.By]
	hand.PowerCards = append(hand.PowerCards, drawn)
	return MovePayload{PowerCard: &drawn}, nil
}

// applyPlayPower plays one held power card as a free action on the actor's
// turn.
func (g *Game) applyPlayPower(move Move) (MovePayload, error) {
	if move.PowerCard == nil {
		return MovePayload{}, ErrIllegalMove
	}
	played := *move.PowerCard

	hand := g.hands[move.By]
	idx := indexOfPower(hand.PowerCards, played)
	if idx < 0 {
		return MovePayload{}, ErrIllegalMove
	}

	payload := MovePayload{PowerCard: &played}

	switch played {
	case card.CardRush:
		for _, p := range g.players {
			if p == move.By {
				continue
			}
			drawn := g.drawBase(2)
			g.hands[p].Cards = append(g.hands[p].Cards, drawn...)
		}
		amount := 2
		payload.DrawAmount = &amount

	case card.Freeze:
		target := move.TargetID
		if target == "" || target == move.By || g.seatOf(target) < 0 {
			return MovePayload{}, ErrIllegalMove
		}
		g.freezes[target] += 2
		payload.TargetUserID = &target

	case card.ColorRush:
		if move.ChosenColor == nil {
			return MovePayload{}, ErrIllegalMove
		}
		chosen := *move.ChosenColor
		kept := hand.Cards[:0:0]
		for _, c := range hand.Cards {
			if !c.IsWild() && c.Color == chosen {
				g.pushBaseDiscard(c)
			} else {
				kept = append(kept, c)
			}
		}
		hand.Cards = kept
		payload.ChosenColor = &chosen

	case card.SwapHands:
		target := move.TargetID
		if target == "" || target == move.By || g.seatOf(target) < 0 {
			return MovePayload{}, ErrIllegalMove
		}
		other := g.hands[target]
		hand.Cards, other.Cards = other.Cards, hand.Cards
		payload.TargetUserID = &target

	case card.Whirlwind:
		g.whirlwind()

	default:
		return MovePayload{}, ErrIllegalMove
	}

	// Spend the card, whatever the effect was.
	hand.PowerCards = append(hand.PowerCards[:idx], hand.PowerCards[idx+1:]...)
	g.powerDiscard = append(g.powerDiscard, played)
	g.powerDiscardTop = &played

	return payload, nil
}

// whirlwind pools every base hand, shuffles the pool, and redeals it evenly.
// Remainder cards are handed out one apiece in turn order starting from the
// current turn holder.
func (g *Game) whirlwind() {
	var pool []card.Card
	for _, p := range g.players {
		pool = append(pool, g.hands[p].Cards...)
		g.hands[p].Cards = nil
	}
	pool = deck.Shuffle(g.rng, pool)

	n := len(g.players)
	per := len(pool) / n
	for _, p := range g.players {
		g.hands[p].Cards = append([]card.Card(nil), pool[:per]...)
		pool = pool[per:]
	}
	for i := 0; len(pool) > 0; i++ {
		seat := ((g.turn.Index+i*g.turn.Direction)%n + n) % n
		p := g.players[seat]
		g.hands[p].Cards = append(g.hands[p].Cards, pool[0])
		pool = pool[1:]
	}
}

// awardPowerPoints credits action-card points and converts threshold
// crossings into earned power-card draws, carrying any remainder.
func (g *Game) awardPowerPoints(playerID string, r card.Rank) {
	points := card.PowerPoints(r)
	if points == 0 {
		return
	}
	g.powerPoints[playerID] += points
	for g.powerPoints[playerID] >= g.threshold {
		g.powerPoints[playerID] -= g.threshold
		g.earnedDraws[playerID]++
	}
}

// drawBase draws up to n cards from the base deck, recycling the discard
// history (minus the current top) when the stack runs dry mid-draw. A
// shortfall with both stacks empty is fulfilled partially and silently.
func (g *Game) drawBase(n int) []card.Card {
	drawn, remaining := deck.Draw(g.baseDeck, n)
	g.baseDeck = remaining

	if len(drawn) < n && len(g.baseDiscard) > 1 {
		top := g.baseDiscard[len(g.baseDiscard)-1]
		recycled := deck.Shuffle(g.rng, g.baseDiscard[:len(g.baseDiscard)-1])
		g.baseDiscard = []card.Card{top}
		g.baseDeck = recycled

		more, remaining := deck.Draw(g.baseDeck, n-len(drawn))
		g.baseDeck = remaining
		drawn = append(drawn, more...)
	}
	return drawn
}

// drawPower draws one power card, recycling the power discard (minus its
// top) when the stack is empty.
func (g *Game) drawPower() (card.PowerCard, bool) {
	if len(g.powerDeck) == 0 && len(g.powerDiscard) > 1 {
		top := g.powerDiscard[len(g.powerDiscard)-1]
		recycled := deck.Shuffle(g.rng, g.powerDiscard[:len(g.powerDiscard)-1])
		g.powerDiscard = []card.PowerCard{top}
		g.powerDeck = recycled
	}
	top, remaining, ok := deck.PopTop(g.powerDeck)
	if !ok {
		return 0, false
	}
	g.powerDeck = remaining
	return top, true
}

// pushBaseDiscard makes c the new discard top, keeping the prior top in the
// history below it.
func (g *Game) pushBaseDiscard(c card.Card) {
	g.baseDiscard = append(g.baseDiscard, c)
	g.discardTop = c
}

func (g *Game) removeFromHand(h *Hand, idx int) {
	h.Cards = append(h.Cards[:idx], h.Cards[idx+1:]...)
}

func indexOfCard(cards []card.Card, c card.Card) int {
	for i, v := range cards {
		if v == c {
			return i
		}
	}
	return -1
}

func indexOfPower(cards []card.PowerCard, p card.PowerCard) int {
	for i, v := range cards {
		if v == p {
			return i
		}
	}
	return -1
}
