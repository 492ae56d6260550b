package main

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xtding233/onemoreturn-backend/internal/content"
	"github.com/xtding233/onemoreturn-backend/internal/engine"
	"github.com/xtding233/onemoreturn-backend/internal/history"
	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

type config struct {
	Addr          string        `env:"ONEMORETURN_ADDR" envDefault:":8080"`
	ContentDir    string        `env:"ONEMORETURN_CONTENT_DIR" envDefault:"content"`
	HistoryDB     string        `env:"ONEMORETURN_HISTORY_DB" envDefault:"history.db"`
	DraftSize     int           `env:"ONEMORETURN_DRAFT_SIZE" envDefault:"5"`
	WatchInterval time.Duration `env:"ONEMORETURN_WATCH_INTERVAL" envDefault:"5s"`
}

// server owns the single active run. All handlers serialize on mu; the
// engine itself is lock-free and pure.
type server struct {
	mu            sync.Mutex
	registry      *modifier.Registry
	resolver      *engine.Resolver
	state         *engine.RunState
	hist          *history.Store
	contentDir    string
	draftSize     int
	recorded      bool // current terminal state already written to history
	pendingReload bool
}

type modResp struct {
	ID             string `json:"id"`
	Stacks         int    `json:"stacks"`
	TurnsRemaining int    `json:"turns_remaining"`
}

type stateResp struct {
	Seed        int64          `json:"seed"`
	Turn        int            `json:"turn"`
	Risk        float64        `json:"risk"`
	AtRisk      int64          `json:"at_risk_score"`
	Banked      int64          `json:"banked_score"`
	Total       int64          `json:"total_score"`
	HasBanked   bool           `json:"has_banked_this_turn"`
	PushStacks  int            `json:"push_stacks_this_turn"`
	Modifiers   []modResp      `json:"modifiers"`
	Counters    map[string]int `json:"counters,omitempty"`
	Flags       []string       `json:"flags,omitempty"`
	GameOver    bool           `json:"game_over"`
	EndReason   string         `json:"end_reason"`
	RandomCalls int64          `json:"random_calls"`
}

type actionResp struct {
	OK           bool       `json:"ok"`
	Reason       string     `json:"reason,omitempty"`
	State        *stateResp `json:"state,omitempty"`
	AmountBanked int64      `json:"amount_banked,omitempty"`
	RiskAdded    float64    `json:"risk_added,omitempty"`
	Sacrificed   string     `json:"sacrificed,omitempty"`
	Granted      string     `json:"granted,omitempty"`
}

type contribResp struct {
	Source  string  `json:"source"`
	ID      string  `json:"id,omitempty"`
	Op      string  `json:"op"`
	Value   float64 `json:"value"`
	Before  float64 `json:"before"`
	After   float64 `json:"after"`
	Display string  `json:"display"`
}

type turnResp struct {
	Turn           int           `json:"turn"`
	BaseGain       int64         `json:"base_gain"`
	PushMultiplier float64       `json:"push_multiplier"`
	FinalGain      int64         `json:"final_gain"`
	GainBreakdown  []contribResp `json:"gain_breakdown"`
	BaseRiskDelta  float64       `json:"base_risk_delta"`
	FinalRiskDelta float64       `json:"final_risk_delta"`
	RiskBreakdown  []contribResp `json:"risk_breakdown"`
	RiskAfter      float64       `json:"risk_after"`
	Bust           bool          `json:"bust"`
	BustPrevented  bool          `json:"bust_prevented"`
	Skipped        int           `json:"skipped_instances,omitempty"`
	State          *stateResp    `json:"state"`
}

type draftOptionResp struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rarity      string `json:"rarity"`
}

type draftResp struct {
	Seed    int64             `json:"seed"`
	Options []draftOptionResp `json:"options"`
}

type runRecordResp struct {
	Seed        int64  `json:"seed"`
	Turns       int    `json:"turns"`
	FinalScore  int64  `json:"final_score"`
	BankedScore int64  `json:"banked_score"`
	EndReason   string `json:"end_reason"`
	FinishedAt  string `json:"finished_at"`
}

func parseFloat(r *http.Request, key string) (float64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

func parseInt64(r *http.Request, key string) (int64, bool, string) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return 0, false, ""
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, "invalid " + key
	}
	return v, true, ""
}

// newSeed draws a crypto-random seed for runs that did not supply one.
func newSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func viewState(s *engine.RunState) *stateResp {
	mods := make([]modResp, 0, len(s.ActiveModifiers))
	for _, inst := range s.ActiveModifiers {
		mods = append(mods, modResp{ID: inst.ModifierID, Stacks: inst.StackCount, TurnsRemaining: inst.TurnsRemaining})
	}
	flags := make([]string, 0, len(s.Flags))
	for f := range s.Flags {
		flags = append(flags, f)
	}
	sort.Strings(flags)
	return &stateResp{
		Seed:        s.Seed,
		Turn:        s.Turn,
		Risk:        s.Risk,
		AtRisk:      s.AtRiskScore,
		Banked:      s.BankedScore,
		Total:       s.TotalScore(),
		HasBanked:   s.HasBankedThisTurn,
		PushStacks:  s.PushStacksThisTurn,
		Modifiers:   mods,
		Counters:    s.Counters,
		Flags:       flags,
		GameOver:    s.GameOver,
		EndReason:   s.EndReason.String(),
		RandomCalls: s.Rand.Calls(),
	}
}

func viewContribs(cs []engine.EffectContribution) []contribResp {
	out := make([]contribResp, 0, len(cs))
	for _, c := range cs {
		out = append(out, contribResp{
			Source:  c.SourceName,
			ID:      c.SourceID,
			Op:      c.Operation.String(),
			Value:   c.Value,
			Before:  c.Before,
			After:   c.After,
			Display: c.Display(),
		})
	}
	return out
}

func (s *server) handleNew(w http.ResponseWriter, r *http.Request) {
	seed, hasSeed, msg := parseInt64(r, "seed")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !hasSeed {
		var err error
		seed, err = newSeed()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfPending()

	var starting []*modifier.Instance
	if mods := r.URL.Query().Get("mods"); mods != "" {
		for _, id := range strings.Split(mods, ",") {
			id = strings.TrimSpace(id)
			def, ok := s.registry.Get(id)
			if !ok {
				writeJSON(w, http.StatusBadRequest, actionResp{Reason: fmt.Sprintf("unknown modifier %q", id)})
				return
			}
			starting = append(starting, modifier.NewInstance(def))
		}
	}

	s.state = engine.NewRun(seed, starting)
	s.recorded = false
	log.Printf("new run: seed=%d mods=%d", seed, len(starting))
	writeJSON(w, http.StatusOK, actionResp{OK: true, State: viewState(s.state)})
}

func (s *server) handleDraft(w http.ResponseWriter, r *http.Request) {
	seed, hasSeed, msg := parseInt64(r, "seed")
	if msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	if !hasSeed {
		var err error
		seed, err = newSeed()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	count := s.draftSize
	if c, ok, cmsg := parseInt64(r, "count"); cmsg != "" {
		http.Error(w, cmsg, http.StatusBadRequest)
		return
	} else if ok {
		count = int(c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reloadIfPending()

	options := engine.DraftOptions(s.registry, engine.NewSeededRand(seed), count)
	resp := draftResp{Seed: seed, Options: make([]draftOptionResp, 0, len(options))}
	for _, def := range options {
		resp.Options = append(resp.Options, draftOptionResp{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Rarity:      def.Rarity.String(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, viewState(s.state))
}

// commit replaces the current state when an action succeeded and renders
// the result either way. Failed actions leave the state alone.
func (s *server) commit(w http.ResponseWriter, res engine.ActionResult) {
	if !res.Success {
		writeJSON(w, http.StatusOK, actionResp{Reason: res.FailureReason})
		return
	}
	s.state = res.NewState
	writeJSON(w, http.StatusOK, actionResp{
		OK:           true,
		State:        viewState(s.state),
		AmountBanked: res.AmountBanked,
		RiskAdded:    res.RiskAdded,
		Sacrificed:   res.SacrificedModifierID,
		Granted:      res.GrantedModifierID,
	})
}

func (s *server) handleBank(w http.ResponseWriter, r *http.Request) {
	pct, ok, msg := parseFloat(r, "pct")
	if !ok || msg != "" {
		http.Error(w, "missing/invalid param pct", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	s.commit(w, s.resolver.Bank(s.state, pct))
}

func (s *server) handlePush(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	s.commit(w, s.resolver.Push(s.state))
}

func (s *server) handleSacrifice(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing param id", http.StatusBadRequest)
		return
	}
	choice := engine.SacrificeReduceRisk
	switch r.URL.Query().Get("choice") {
	case "", "risk":
	case "score":
		choice = engine.SacrificeGainScore
	default:
		http.Error(w, "choice must be risk or score", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	s.commit(w, s.resolver.Sacrifice(s.state, id, choice))
}

func (s *server) handleGrant(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing param id", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	s.commit(w, s.resolver.Grant(s.state, id))
}

func (s *server) handleTurn(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	newState, result, err := s.resolver.ResolveTurn(s.state)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	s.state = newState
	if result.SkippedInstances > 0 {
		log.Printf("turn %d: skipped %d modifier instance(s) with missing definitions", result.TurnNumber, result.SkippedInstances)
	}
	if newState.GameOver {
		s.recordRun(r.Context())
	}

	writeJSON(w, http.StatusOK, turnResp{
		Turn:           result.TurnNumber,
		BaseGain:       result.BaseGain,
		PushMultiplier: result.PushMultiplier,
		FinalGain:      result.FinalGain,
		GainBreakdown:  viewContribs(result.GainContributions),
		BaseRiskDelta:  result.BaseRiskDelta,
		FinalRiskDelta: result.FinalRiskDelta,
		RiskBreakdown:  viewContribs(result.RiskContributions),
		RiskAfter:      result.RiskAfter,
		Bust:           result.DidBust,
		BustPrevented:  result.BustPrevented,
		Skipped:        result.SkippedInstances,
		State:          viewState(s.state),
	})
}

func (s *server) handleCashOut(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		http.Error(w, "no active run", http.StatusNotFound)
		return
	}
	if s.state.GameOver {
		writeJSON(w, http.StatusOK, actionResp{Reason: "game is over"})
		return
	}
	s.state = s.resolver.CashOut(s.state)
	s.recordRun(r.Context())
	writeJSON(w, http.StatusOK, actionResp{OK: true, State: viewState(s.state)})
}

func (s *server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, ok, msg := parseInt64(r, "limit"); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	} else if ok {
		limit = int(v)
	}
	records, err := s.hist.RecentRuns(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]runRecordResp, 0, len(records))
	for _, rec := range records {
		out = append(out, runRecordResp{
			Seed:        rec.Seed,
			Turns:       rec.Turns,
			FinalScore:  rec.FinalScore,
			BankedScore: rec.BankedScore,
			EndReason:   rec.EndReason,
			FinishedAt:  rec.FinishedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// recordRun writes the current terminal state to history once. Callers
// hold s.mu.
func (s *server) recordRun(ctx context.Context) {
	if s.hist == nil || s.recorded || s.state == nil || !s.state.GameOver {
		return
	}
	rec := history.Record{
		Seed:        s.state.Seed,
		Turns:       s.state.Turn,
		FinalScore:  s.state.TotalScore(),
		BankedScore: s.state.BankedScore,
		EndReason:   s.state.EndReason.String(),
	}
	if err := s.hist.RecordRun(ctx, rec); err != nil {
		log.Printf("record run: %v", err)
		return
	}
	s.recorded = true
	log.Printf("run finished: seed=%d turns=%d score=%d reason=%s", rec.Seed, rec.Turns, rec.FinalScore, rec.EndReason)
}

// onCatalogChange defers the reload while a run is in flight; the registry
// must not change under an active resolution.
func (s *server) onCatalogChange(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingReload = true
	if s.state != nil && !s.state.GameOver {
		log.Printf("catalog %s changed; reload deferred until the run ends", path)
		return
	}
	s.reloadIfPending()
}

// reloadIfPending rebuilds the registry from disk. Callers hold s.mu.
func (s *server) reloadIfPending() {
	if !s.pendingReload {
		return
	}
	s.pendingReload = false
	defs, err := content.LoadDir(s.contentDir)
	if err != nil {
		log.Printf("reload catalog: %v", err)
		return
	}
	registry := modifier.NewRegistry()
	registry.RegisterAll(defs)
	s.registry = registry
	s.resolver = engine.NewResolver(registry)
	log.Printf("catalog reloaded: %d modifiers", registry.Len())
}

func main() {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		log.Fatalf("parse env: %v", err)
	}

	registry := modifier.NewRegistry()
	defs, err := content.LoadDir(cfg.ContentDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("content dir %s missing; starting with an empty catalog", cfg.ContentDir)
		} else {
			log.Fatalf("load catalog: %v", err)
		}
	} else {
		registry.RegisterAll(defs)
	}
	log.Printf("loaded %d modifiers from %s", registry.Len(), cfg.ContentDir)

	hist, err := history.Open(cfg.HistoryDB)
	if err != nil {
		log.Fatalf("open history: %v", err)
	}
	defer hist.Close()

	s := &server{
		registry:   registry,
		resolver:   engine.NewResolver(registry),
		hist:       hist,
		contentDir: cfg.ContentDir,
		draftSize:  cfg.DraftSize,
	}

	watcher := content.NewCatalogWatcher(cfg.ContentDir, cfg.WatchInterval, s.onCatalogChange)
	watcher.Start()
	defer watcher.Stop()

	mux := http.NewServeMux()
	mux.HandleFunc("/new", s.handleNew)
	mux.HandleFunc("/draft", s.handleDraft)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/bank", s.handleBank)
	mux.HandleFunc("/push", s.handlePush)
	mux.HandleFunc("/sacrifice", s.handleSacrifice)
	mux.HandleFunc("/grant", s.handleGrant)
	mux.HandleFunc("/turn", s.handleTurn)
	mux.HandleFunc("/cashout", s.handleCashOut)
	mux.HandleFunc("/runs", s.handleRuns)

	log.Printf("listening on %s ...", cfg.Addr)
	log.Fatal(http.ListenAndServe(cfg.Addr, mux))
}
