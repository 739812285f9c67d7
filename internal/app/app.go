package app

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	abci "github.com/cometbft/cometbft/abci/types"

	"fairdeck/internal/codec"
	"fairdeck/internal/config"
	"fairdeck/internal/state"
)

const AppVersion uint64 = 1

// FDApp is the fairdeck ABCI application. One process hosts one chain:
// either the bank or a single player's chain, decided by configuration.
type FDApp struct {
	*abci.BaseApplication

	home string

	mu       sync.Mutex
	st       *state.State
	lastHash []byte
}

func New(home string, cfg config.Config) (*FDApp, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	appHome := filepath.Join(home, "app")
	st, err := state.Load(appHome)
	if err != nil {
		return nil, err
	}
	if st.ChainID == "" {
		initGenesis(st, cfg)
	}
	if st.ChainID != cfg.ChainID || st.BankChainID != cfg.BankChainID {
		return nil, fmt.Errorf("state identity %q/%q does not match config %q/%q",
			st.ChainID, st.BankChainID, cfg.ChainID, cfg.BankChainID)
	}
	a := &FDApp{
		BaseApplication: abci.NewBaseApplication(),
		home:            home,
		st:              st,
		lastHash:        st.AppHash(),
	}
	return a, nil
}

func initGenesis(st *state.State, cfg config.Config) {
	st.ChainID = cfg.ChainID
	st.BankChainID = cfg.BankChainID
	st.Owner = cfg.Owner
	st.FaucetAmount = cfg.FaucetAmount
	if cfg.IsBank() {
		seed := cfg.MasterSeed
		if seed == 0 {
			seed = defaultMasterSeed
		}
		st.MasterSeed = seed
		st.HouseBalance = cfg.HouseFloat
	} else {
		st.PlayerBalance = cfg.StartingBalance
	}
}

func (a *FDApp) Info(_ context.Context, _ *abci.InfoRequest) (*abci.InfoResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	return &abci.InfoResponse{
		Data:             "fairdeck (v1)",
		Version:          "v1",
		AppVersion:       AppVersion,
		LastBlockHeight:  a.st.Height,
		LastBlockAppHash: a.lastHash,
	}, nil
}

func (a *FDApp) CheckTx(_ context.Context, req *abci.CheckTxRequest) (*abci.CheckTxResponse, error) {
	// Structural validation only; identity and phase checks run at
	// delivery against committed state.
	if _, err := codec.DecodeTxEnvelope(req.Tx); err != nil {
		return &abci.CheckTxResponse{Code: 1, Log: err.Error()}, nil
	}
	return &abci.CheckTxResponse{Code: 0}, nil
}

func (a *FDApp) InitChain(_ context.Context, _ *abci.InitChainRequest) (*abci.InitChainResponse, error) {
	// Genesis state was built in New; nothing chain-provided to apply.
	return &abci.InitChainResponse{}, nil
}

func (a *FDApp) FinalizeBlock(_ context.Context, req *abci.FinalizeBlockRequest) (*abci.FinalizeBlockResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.st.Height = req.Height
	now := req.Time.Unix()

	txResults := make([]*abci.ExecTxResult, 0, len(req.Txs))
	for _, txBytes := range req.Txs {
		txResults = append(txResults, a.deliverTx(txBytes, req.Height, now))
	}

	a.lastHash = a.st.AppHash()

	return &abci.FinalizeBlockResponse{
		TxResults: txResults,
		AppHash:   a.lastHash,
	}, nil
}

func (a *FDApp) Commit(_ context.Context, _ *abci.CommitRequest) (*abci.CommitResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	appHome := filepath.Join(a.home, "app")
	if err := a.st.Save(appHome); err != nil {
		return nil, err
	}
	return &abci.CommitResponse{}, nil
}

// deliverTx executes one transaction as an atomic step: handlers mutate
// a clone of the state, and the clone replaces the committed state only
// on success. A rejected transaction has no partial effect.
func (a *FDApp) deliverTx(txBytes []byte, height, now int64) *abci.ExecTxResult {
	env, err := codec.DecodeTxEnvelope(txBytes)
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}

	staged, err := a.st.Clone()
	if err != nil {
		return &abci.ExecTxResult{Code: 1, Log: err.Error()}
	}
	staged.Height = height
	res := routeTx(staged, env, now)
	if res.Code == 0 {
		a.st = staged
	}
	return res
}

func routeTx(st *state.State, env codec.TxEnvelope, now int64) *abci.ExecTxResult {
	switch env.Type {
	case "auth/register_account":
		var msg codec.AuthRegisterAccountTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad auth/register_account value")
		}
		if err := requireRegisterAccountAuth(st, env, msg); err != nil {
			return errTx("%v", err)
		}
		st.AccountKeys[msg.Account] = msg.PubKey
		return okEvent("AccountRegistered", map[string]string{"account": msg.Account})

	case "table/create":
		var msg codec.TableCreateTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/create value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return errTx("%v", err)
		}
		return handleTableCreate(st, msg)
	case "table/join":
		var msg codec.TableJoinTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/join value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handleTableJoin(st, msg)
	case "table/reveal":
		var msg codec.TableRevealTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/reveal value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handleTableReveal(st, msg)
	case "table/submit_vrf":
		var msg codec.TableSubmitVrfTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/submit_vrf value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return errTx("%v", err)
		}
		return handleTableSubmitVrf(st, msg)
	case "table/deal":
		var msg codec.TableDealTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/deal value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return errTx("%v", err)
		}
		return handleTableDeal(st, msg)
	case "table/act":
		var msg codec.TableActTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/act value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handleTableAct(st, msg)
	case "table/resolve":
		var msg codec.TableResolveTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/resolve value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return errTx("%v", err)
		}
		return handleTableResolve(st, msg)
	case "table/cancel":
		var msg codec.TableCancelTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad table/cancel value")
		}
		if err := requireAccountAuth(st, env, msg.Dealer); err != nil {
			return errTx("%v", err)
		}
		return handleTableCancel(st, msg)

	case "casino/request_chips":
		var msg codec.CasinoRequestChipsTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad casino/request_chips value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handleRequestChips(st, msg)
	case "casino/play":
		var msg codec.CasinoPlayTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad casino/play value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handlePlayBlackjack(st, msg)
	case "casino/hit", "casino/stand", "casino/double_down":
		var msg codec.CasinoActTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad %s value", env.Type)
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handleCasinoAct(st, strings.TrimPrefix(env.Type, "casino/"), msg)
	case "casino/reset":
		var msg codec.CasinoResetTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad casino/reset value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handleCasinoReset(st, msg)
	case "casino/play_roulette":
		var msg codec.CasinoPlayRouletteTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad casino/play_roulette value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handlePlayRoulette(st, msg)
	case "casino/play_baccarat":
		var msg codec.CasinoPlayBaccaratTx
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad casino/play_baccarat value")
		}
		if err := requireAccountAuth(st, env, msg.Player); err != nil {
			return errTx("%v", err)
		}
		return handlePlayBaccarat(st, msg)

	// msg/deliver and transport/prune are submitted by the transport
	// relayer, not a named party; routeMessage authenticates them by
	// chain identity (addressing plus the bank-origin check).
	case "msg/deliver":
		var m codec.Message
		if err := json.Unmarshal(env.Value, &m); err != nil {
			return errTx("bad msg/deliver value")
		}
		return routeMessage(st, m, now)

	case "transport/prune":
		var msg struct {
			UpTo uint64 `json:"upTo"`
		}
		if err := json.Unmarshal(env.Value, &msg); err != nil {
			return errTx("bad transport/prune value")
		}
		st.PruneOutbox(msg.UpTo)
		return okEvent("OutboxPruned", map[string]string{
			"upTo": fmt.Sprintf("%d", msg.UpTo),
		})

	default:
		return errTx("unknown tx type: %s", env.Type)
	}
}

// routeMessage dispatches one inter-process message delivered by the
// transport. Bank-bound messages are refused on non-bank processes; the
// role is configured identity, never inferred from message content.
func routeMessage(st *state.State, m codec.Message, now int64) *abci.ExecTxResult {
	if m.To != st.ChainID {
		return errTx("message addressed to %q delivered to %q", m.To, st.ChainID)
	}

	switch m.Type {
	case codec.MsgRequestChips, codec.MsgRequestGame, codec.MsgReportResult,
		codec.MsgRequestRoulette, codec.MsgRequestBaccarat:
		if !st.IsBank() {
			return errTx("%s may only be handled by the bank chain", m.Type)
		}
	case codec.MsgChipsGranted, codec.MsgGameReady, codec.MsgGameSettled,
		codec.MsgRouletteSettled, codec.MsgBaccaratSettled:
		if st.IsBank() {
			return errTx("%s may only be handled by a player chain", m.Type)
		}
		if m.From != st.BankChainID {
			return errTx("%s must originate from the bank chain", m.Type)
		}
	default:
		return errTx("unknown message type: %s", m.Type)
	}

	switch m.Type {
	case codec.MsgRequestChips:
		var msg codec.RequestChipsMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return bankRequestChips(st, m.From, msg)
	case codec.MsgRequestGame:
		var msg codec.RequestGameMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return bankRequestGame(st, m.From, msg, now)
	case codec.MsgReportResult:
		var msg codec.ReportResultMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return bankReportResult(st, m.From, msg)
	case codec.MsgRequestRoulette:
		var msg codec.RequestRouletteMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return bankRequestRoulette(st, m.From, msg, now)
	case codec.MsgRequestBaccarat:
		var msg codec.RequestBaccaratMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return bankRequestBaccarat(st, m.From, msg, now)

	case codec.MsgChipsGranted:
		var msg codec.ChipsGrantedMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return playerChipsGranted(st, msg)
	case codec.MsgGameReady:
		var msg codec.GameReadyMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return playerGameReady(st, msg)
	case codec.MsgGameSettled:
		var msg codec.GameSettledMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return playerGameSettled(st, msg, now)
	case codec.MsgRouletteSettled:
		var msg codec.RouletteSettledMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return playerRouletteSettled(st, msg, now)
	case codec.MsgBaccaratSettled:
		var msg codec.BaccaratSettledMsg
		if err := json.Unmarshal(m.Value, &msg); err != nil {
			return errTx("bad %s message", m.Type)
		}
		return playerBaccaratSettled(st, msg, now)
	}
	return errTx("unknown message type: %s", m.Type)
}

func errTx(format string, args ...any) *abci.ExecTxResult {
	return &abci.ExecTxResult{Code: 1, Log: fmt.Sprintf(format, args...)}
}

func okEvent(typ string, attrs map[string]string) *abci.ExecTxResult {
	ev := abci.Event{Type: typ}
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ev.Attributes = append(ev.Attributes, abci.EventAttribute{Key: k, Value: attrs[k], Index: true})
	}
	return &abci.ExecTxResult{
		Code:   0,
		Events: []abci.Event{ev},
	}
}

func (a *FDApp) Query(_ context.Context, req *abci.QueryRequest) (*abci.QueryResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.st
	path := strings.TrimSpace(req.Path)
	switch {
	case path == "/tables":
		ids := make([]uint64, 0, len(st.Tables))
		for id := range st.Tables {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		return queryOK(ids, st.Height)
	case strings.HasPrefix(path, "/table/"):
		id, err := strconv.ParseUint(strings.TrimPrefix(path, "/table/"), 10, 64)
		if err != nil {
			return queryErr("invalid table id", st.Height)
		}
		t, ok := st.Tables[id]
		if !ok {
			return queryErr("table not found", st.Height)
		}
		return queryOK(t, st.Height)
	case path == "/balance":
		return queryOK(map[string]any{"owner": st.Owner, "balance": st.PlayerBalance}, st.Height)
	case path == "/house":
		if !st.IsBank() {
			return queryErr("not the bank chain", st.Height)
		}
		return queryOK(map[string]any{
			"houseBalance": st.HouseBalance,
			"gameCounter":  st.GameCounter,
		}, st.Height)
	case path == "/game":
		if st.ActiveGame == nil {
			return queryErr("no active game", st.Height)
		}
		return queryOK(activeGameView(st.ActiveGame), st.Height)
	case strings.HasPrefix(path, "/pending/"):
		if !st.IsBank() {
			return queryErr("not the bank chain", st.Height)
		}
		id, err := strconv.ParseUint(strings.TrimPrefix(path, "/pending/"), 10, 64)
		if err != nil {
			return queryErr("invalid game id", st.Height)
		}
		g, ok := st.PendingGames[id]
		if !ok {
			return queryErr("game not found", st.Height)
		}
		return queryOK(g, st.Height)
	case path == "/roulette":
		if st.PendingRoulette == nil {
			return queryErr("no roulette game", st.Height)
		}
		return queryOK(st.PendingRoulette, st.Height)
	case path == "/baccarat":
		if st.PendingBaccarat == nil {
			return queryErr("no baccarat game", st.Height)
		}
		return queryOK(st.PendingBaccarat, st.Height)
	case path == "/history":
		return queryOK(st.History, st.Height)
	case path == "/outbox":
		return queryOK(st.Outbox, st.Height)
	default:
		return queryErr("unknown query path", st.Height)
	}
}

func queryOK(v any, height int64) (*abci.QueryResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return &abci.QueryResponse{Code: 1, Log: err.Error(), Height: height}, nil
	}
	return &abci.QueryResponse{Code: 0, Value: b, Height: height}, nil
}

func queryErr(log string, height int64) (*abci.QueryResponse, error) {
	return &abci.QueryResponse{Code: 1, Log: log, Height: height}, nil
}
