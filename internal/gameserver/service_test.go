package gameserver_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/buttonmen/internal/config"
	"github.com/cory-johannsen/buttonmen/internal/game/attack"
	"github.com/cory-johannsen/buttonmen/internal/game/button"
	"github.com/cory-johannsen/buttonmen/internal/game/dice"
	"github.com/cory-johannsen/buttonmen/internal/game/engine"
	"github.com/cory-johannsen/buttonmen/internal/gameserver"
	"github.com/cory-johannsen/buttonmen/internal/storage"
	"github.com/cory-johannsen/buttonmen/internal/storage/memory"
)

const testCatalog = `
buttons:
  - name: Ones
    recipe: "(1) (1)"
  - name: Single
    recipe: "(1)"
  - name: Swinger
    recipe: "(4) (X)"
`

func newService(t *testing.T) *gameserver.Service {
	t.Helper()
	svc, _ := newServiceWithStore(t)
	return svc
}

func newServiceWithStore(t *testing.T) (*gameserver.Service, *memory.Store) {
	t.Helper()
	cat, err := button.Parse([]byte(testCatalog))
	require.NoError(t, err)
	rules := config.RulesConfig{DefaultMaxWins: 1, MaxWinsLimit: 5, ChatMaxLength: 1020, LogTail: 20}
	store := memory.NewStore()
	svc := gameserver.NewService(store, cat, attack.DefaultRegistry(), rules, zaptest.NewLogger(t))
	svc.Source = dice.NewSeededSource(7)
	var mu sync.Mutex
	n := 0
	svc.NewID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", n)
	}
	return svc, store
}

func acting(resp gameserver.GameResponse, playerID string) gameserver.ActionContext {
	ts := resp.Game.LastActionTime
	return gameserver.ActionContext{
		GameID:    resp.Game.GameID,
		PlayerID:  playerID,
		State:     resp.Game.State,
		Round:     resp.Game.Round,
		Timestamp: &ts,
	}
}

func createOnesVsSingle(t *testing.T, svc *gameserver.Service) gameserver.GameResponse {
	t.Helper()
	resp, err := svc.CreateGame(context.Background(), gameserver.CreateGameRequest{
		PlayerIDs: []string{"alice", "bob"},
		Buttons:   []string{"Ones", "Single"},
	})
	require.NoError(t, err)
	require.Equal(t, engine.StateStartTurn, resp.Game.State)
	return resp
}

// nextTurn builds a Power attack on the first opposing die, or a Pass when
// either side has run out of dice.
func nextTurn(resp gameserver.GameResponse) gameserver.TurnRequest {
	seat := resp.Game.ActivePlayer
	opp := 1 - seat
	req := gameserver.TurnRequest{
		ActionContext: acting(resp, resp.Game.Players[seat].PlayerID),
		AttackType:    attack.Pass,
		Defender:      engine.NoPlayer,
	}
	if len(resp.Game.Players[seat].ActiveDice) > 0 && len(resp.Game.Players[opp].ActiveDice) > 0 {
		req.AttackType = attack.Power
		req.Defender = opp
		req.AttackerDice = []int{0}
		req.DefenderDice = []int{0}
	}
	return req
}

func TestCreateGame_Validation(t *testing.T) {
	svc := newService(t)
	cases := map[string]gameserver.CreateGameRequest{
		"one player":       {PlayerIDs: []string{"alice"}},
		"duplicate player": {PlayerIDs: []string{"alice", "alice"}},
		"empty player id":  {PlayerIDs: []string{"alice", ""}},
		"max wins too big": {PlayerIDs: []string{"alice", "bob"}, MaxWins: 6},
		"negative wins":    {PlayerIDs: []string{"alice", "bob"}, MaxWins: -1},
		"unknown button":   {PlayerIDs: []string{"alice", "bob"}, Buttons: []string{"Ones", "Nobody"}},
		"button count":     {PlayerIDs: []string{"alice", "bob"}, Buttons: []string{"Ones"}},
		"autopass count":   {PlayerIDs: []string{"alice", "bob"}, Autopass: []bool{true}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.CreateGame(context.Background(), req)
			assert.ErrorIs(t, err, gameserver.ErrBadRequest)
		})
	}
}

func TestCreateGame_DefaultsMaxWins(t *testing.T) {
	svc := newService(t)
	resp := createOnesVsSingle(t, svc)
	assert.Equal(t, 1, resp.Game.MaxWins)
	assert.Equal(t, 1, resp.Game.Round)
	assert.Equal(t, "alice", resp.Game.Players[0].PlayerID)
	assert.Equal(t, "Ones", resp.Game.Players[0].Button)

	games, err := svc.ListGames(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, resp.Game.GameID, games[0].ID)
	assert.Equal(t, storage.StatusActive, games[0].Status)
}

func TestGetGame_Spectator(t *testing.T) {
	svc := newService(t)
	created := createOnesVsSingle(t, svc)
	resp, err := svc.GetGame(context.Background(), created.Game.GameID, "carol")
	require.NoError(t, err)
	assert.Empty(t, resp.Game.ValidAttackTypes)
	assert.Nil(t, resp.Game.Players[0].SwingValues)
}

func TestGetGame_Missing(t *testing.T) {
	svc := newService(t)
	_, err := svc.GetGame(context.Background(), "00000000-0000-0000-0000-999999999999", "alice")
	assert.ErrorIs(t, err, storage.ErrGameNotFound)
}

func TestSubmitTurn_PlaysToEndGame(t *testing.T) {
	svc := newService(t)
	resp := createOnesVsSingle(t, svc)
	ctx := context.Background()

	first := nextTurn(resp)
	first.Chat = "good luck"
	resp, err := svc.SubmitTurn(ctx, first)
	require.NoError(t, err)
	require.Len(t, resp.Chat, 1)
	assert.Equal(t, "good luck", resp.Chat[0].Message)
	assert.Equal(t, first.PlayerID, resp.Chat[0].PlayerID)

	for i := 0; resp.Game.State != engine.StateEndGame; i++ {
		require.Less(t, i, 50, "game did not finish")
		resp, err = svc.SubmitTurn(ctx, nextTurn(resp))
		require.NoError(t, err)
	}

	total := resp.Game.Players[0].GameScore.Total() + resp.Game.Players[1].GameScore.Total()
	assert.Equal(t, 2, total, "one round, counted once per player")
	var sawRound, sawEnd bool
	for _, line := range resp.ActionLog {
		if strings.Contains(strings.ToLower(line.Message), "round 1") {
			sawRound = true
		}
		if line.Message == "The game has ended" {
			sawEnd = true
		}
	}
	assert.True(t, sawRound)
	assert.True(t, sawEnd)

	games, err := svc.ListGames(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, storage.StatusComplete, games[0].Status)

	_, err = svc.SubmitTurn(ctx, gameserver.TurnRequest{
		ActionContext: acting(resp, "alice"),
		AttackType:    attack.Pass,
		Defender:      engine.NoPlayer,
	})
	assert.ErrorIs(t, err, gameserver.ErrNotAwaited)
}

func TestSubmitTurn_ActionMustBeCurrent(t *testing.T) {
	svc := newService(t)
	resp := createOnesVsSingle(t, svc)
	ctx := context.Background()
	active := resp.Game.Players[resp.Game.ActivePlayer].PlayerID
	idle := resp.Game.Players[1-resp.Game.ActivePlayer].PlayerID

	cases := []struct {
		name   string
		mutate func(*gameserver.TurnRequest)
		want   error
	}{
		{"wrong state", func(r *gameserver.TurnRequest) { r.State = engine.StateSpecifyDice }, gameserver.ErrActionNotCurrent},
		{"wrong round", func(r *gameserver.TurnRequest) { r.Round = 2 }, gameserver.ErrActionNotCurrent},
		{"old timestamp", func(r *gameserver.TurnRequest) {
			ts := r.Timestamp.Add(-time.Second)
			r.Timestamp = &ts
		}, gameserver.ErrActionNotCurrent},
		{"not participant", func(r *gameserver.TurnRequest) { r.PlayerID = "mallory" }, gameserver.ErrNotParticipant},
		{"not awaited", func(r *gameserver.TurnRequest) { r.PlayerID = idle }, gameserver.ErrNotAwaited},
		{"missing game", func(r *gameserver.TurnRequest) { r.GameID = "00000000-0000-0000-0000-999999999999" }, storage.ErrGameNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := nextTurn(resp)
			require.Equal(t, active, req.PlayerID)
			tc.mutate(&req)
			_, err := svc.SubmitTurn(ctx, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	req := nextTurn(resp)
	req.Timestamp = nil
	_, err := svc.SubmitTurn(ctx, req)
	assert.NoError(t, err, "timestamp is optional")
}

func TestSubmitTurn_InvalidAttackChangesNothing(t *testing.T) {
	svc := newService(t)
	resp := createOnesVsSingle(t, svc)
	ctx := context.Background()

	req := nextTurn(resp)
	req.AttackerDice = []int{7}
	_, err := svc.SubmitTurn(ctx, req)
	require.ErrorIs(t, err, engine.ErrInvalidInput)

	after, err := svc.GetGame(ctx, resp.Game.GameID, req.PlayerID)
	require.NoError(t, err)
	assert.True(t, after.Game.LastActionTime.Equal(resp.Game.LastActionTime))
	assert.Equal(t, resp.Game.Turn, after.Game.Turn)
}

func TestSubmitTurn_ConcurrentDuplicatesApplyOnce(t *testing.T) {
	svc := newService(t)
	resp := createOnesVsSingle(t, svc)
	req := nextTurn(resp)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.SubmitTurn(context.Background(), req)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, gameserver.ErrActionNotCurrent)
	}
	assert.Equal(t, 1, ok)
}

func TestChooseButton(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	resp, err := svc.CreateGame(ctx, gameserver.CreateGameRequest{PlayerIDs: []string{"alice", "bob"}})
	require.NoError(t, err)
	require.Equal(t, engine.StateStartGame, resp.Game.State)
	assert.True(t, resp.Game.Players[0].Waiting)
	assert.True(t, resp.Game.Players[1].Waiting)

	_, err = svc.ChooseButton(ctx, gameserver.ChooseButtonRequest{ActionContext: acting(resp, "alice"), Button: "Nobody"})
	require.ErrorIs(t, err, engine.ErrInvalidInput)

	resp, err = svc.ChooseButton(ctx, gameserver.ChooseButtonRequest{ActionContext: acting(resp, "alice"), Button: "Ones"})
	require.NoError(t, err)
	assert.Equal(t, engine.StateStartGame, resp.Game.State)
	assert.False(t, resp.Game.Players[0].Waiting)

	resp, err = svc.ChooseButton(ctx, gameserver.ChooseButtonRequest{ActionContext: acting(resp, "bob"), Button: "Single"})
	require.NoError(t, err)
	assert.Equal(t, engine.StateStartTurn, resp.Game.State)
	assert.Equal(t, "Single", resp.Game.Players[1].Button)
}

func TestSubmitSwingValues(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	resp, err := svc.CreateGame(ctx, gameserver.CreateGameRequest{
		PlayerIDs: []string{"alice", "bob"},
		Buttons:   []string{"Swinger", "Ones"},
	})
	require.NoError(t, err)
	require.Equal(t, engine.StateSpecifyDice, resp.Game.State)
	assert.Equal(t, []string{"X"}, resp.Game.Players[0].SwingRequests)

	_, err = svc.SubmitSwingValues(ctx, gameserver.SwingRequest{ActionContext: acting(resp, "alice"), Swing: map[string]int{"X": 99}})
	require.ErrorIs(t, err, engine.ErrInvalidInput)

	_, err = svc.SubmitSwingValues(ctx, gameserver.SwingRequest{ActionContext: acting(resp, "bob"), Swing: map[string]int{"X": 10}})
	require.ErrorIs(t, err, gameserver.ErrNotAwaited)

	resp, err = svc.SubmitSwingValues(ctx, gameserver.SwingRequest{
		ActionContext: acting(resp, "alice"),
		Swing:         map[string]int{"X": 10},
		Chat:          "ten it is",
	})
	require.NoError(t, err)
	assert.Equal(t, engine.StateStartTurn, resp.Game.State)
	assert.Equal(t, map[string]int{"X": 10}, resp.Game.Players[0].SwingValues)
	require.Len(t, resp.Chat, 1)
}

func TestSetAutopass(t *testing.T) {
	svc := newService(t)
	resp := createOnesVsSingle(t, svc)
	ctx := context.Background()

	resp, err := svc.SetAutopass(ctx, gameserver.AutopassRequest{GameID: resp.Game.GameID, PlayerID: "bob", Autopass: true})
	require.NoError(t, err)
	assert.True(t, resp.Game.Players[1].Autopass)
	assert.False(t, resp.Game.Players[0].Autopass)

	_, err = svc.SetAutopass(ctx, gameserver.AutopassRequest{GameID: resp.Game.GameID, PlayerID: "mallory", Autopass: true})
	assert.ErrorIs(t, err, gameserver.ErrNotParticipant)
}

func TestSetAutopass_InvalidatesOlderViews(t *testing.T) {
	svc, store := newServiceWithStore(t)
	ctx := context.Background()
	stale := createOnesVsSingle(t, svc)
	staleSnap, err := store.LoadGame(ctx, stale.Game.GameID)
	require.NoError(t, err)

	resp, err := svc.SetAutopass(ctx, gameserver.AutopassRequest{GameID: stale.Game.GameID, PlayerID: "bob", Autopass: true})
	require.NoError(t, err)
	assert.True(t, resp.Game.LastActionTime.After(stale.Game.LastActionTime))

	_, err = svc.SubmitTurn(ctx, nextTurn(stale))
	assert.ErrorIs(t, err, gameserver.ErrActionNotCurrent)

	err = store.SaveGame(ctx, staleSnap, staleSnap.LastActionTime, nil, nil)
	assert.ErrorIs(t, err, storage.ErrStaleGame)

	_, err = svc.SubmitTurn(ctx, nextTurn(resp))
	assert.NoError(t, err)
}

func TestListButtons(t *testing.T) {
	svc := newService(t)
	defs := svc.ListButtons()
	require.Len(t, defs, 3)
	assert.Equal(t, "Ones", defs[0].Name)
}
