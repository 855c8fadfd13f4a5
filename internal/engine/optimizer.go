package engine

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/ncsaa/hoopsched/internal/config"
	"github.com/ncsaa/hoopsched/internal/matchup"
	"github.com/ncsaa/hoopsched/internal/model"
)

// stageAAttempts is the number of randomized restarts per division in the
// constraint search. The wall-clock budget cuts the loop short when it
// fires first; each attempt is deterministic for a given seed either way.
const stageAAttempts = 40

// relaxPenalty keeps relaxed placements out of the running whenever a clean
// slot exists; dnpPenalty does the same for do-not-play opponents in the
// late passes.
const (
	relaxPenalty = 5000
	dnpPenalty   = 10000
)

type optimizer struct {
	cfg     *config.Config
	league  *model.League
	eval    *Evaluator
	planner matchup.Planner
	clock   clockwork.Clock
	log     zerolog.Logger
	seed    int64

	// rng drives home/away and tiebreak coins. Stage A workers never touch
	// it; they derive their own generators from the seed.
	rng *rand.Rand

	slots    []model.TimeSlot
	blocks   []model.TimeBlock
	divSlots map[model.Division][]model.TimeSlot

	sched       *model.Schedule
	relaxations []model.Relaxation
	annotations []string
	cancelled   bool
	seq         map[model.Division]int

	// notify, when set, receives a checkpoint after the division search
	// merges and after each greedy pass.
	notify func(Progress)
}

func (o *optimizer) progress(stage string, pass int) {
	if o.notify == nil {
		return
	}
	o.notify(Progress{Stage: stage, Pass: pass, Placed: o.sched.Len()})
}

func newOptimizer(cfg *config.Config, league *model.League, planner matchup.Planner, slots []model.TimeSlot, seed int64, log zerolog.Logger, clock clockwork.Clock) *optimizer {
	duration := time.Duration(cfg.Season.GameDurationMinutes) * time.Minute
	return &optimizer{
		cfg:      cfg,
		league:   league,
		eval:     NewEvaluator(cfg, league),
		planner:  planner,
		clock:    clock,
		log:      log,
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		slots:    slots,
		blocks:   BuildBlocks(slots, duration),
		divSlots: DivisionSlots(slots, league),
		sched:    model.NewSchedule(),
		seq:      make(map[model.Division]int),
	}
}

func (o *optimizer) run(ctx context.Context) {
	o.stageA(ctx)
	if o.cancelled {
		return
	}
	o.stageB(ctx)
	if o.cancelled {
		return
	}
	if len(o.shortTeams()) > 0 {
		o.desperateFill(ctx)
	}
}

// plannedGame is a stage A provisional placement, pair plus slot. Home and
// away are assigned at merge time so the master RNG sees placements in
// canonical order.
type plannedGame struct {
	teamA, teamB string
	slot         model.TimeSlot
}

type divSearch struct {
	div       model.Division
	games     []plannedGame
	complete  bool
	attempts  int
	budgetHit bool
	err       error
}

// stageA runs the per-division constraint search across a small worker
// pool and merges results in canonical division order. Cross-division slot
// collisions are dropped here; the greedy passes pick those games back up.
func (o *optimizer) stageA(ctx context.Context) {
	if o.cfg.Rules.CPTimeBudgetSeconds <= 0 {
		o.log.Info().Msg("stage A disabled, going straight to greedy passes")
		return
	}
	deadline := o.clock.Now().Add(time.Duration(o.cfg.Rules.CPTimeBudgetSeconds) * time.Second)

	var divisions []model.Division
	for _, d := range model.Divisions() {
		if len(o.league.TeamsInDivision(d)) >= 2 {
			divisions = append(divisions, d)
		}
	}
	if len(divisions) == 0 {
		return
	}

	workers := o.cfg.Rules.CPWorkers
	if workers < 1 {
		workers = 1
	}
	if workers > len(divisions) {
		workers = len(divisions)
	}

	results := make([]divSearch, len(divisions))
	work := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = o.searchDivision(ctx, divisions[idx], int64(idx), deadline)
			}
		}()
	}
	for idx := range divisions {
		work <- idx
	}
	close(work)
	wg.Wait()

	placed, dropped := 0, 0
	for _, res := range results {
		if res.err != nil {
			o.annotations = append(o.annotations,
				fmt.Sprintf("stage A search for %s failed: %v; greedy passes continue", res.div, res.err))
			continue
		}
		if res.budgetHit {
			o.annotations = append(o.annotations,
				fmt.Sprintf("stage A time budget exhausted for %s after %d attempts", res.div, res.attempts))
		}
		for _, pg := range res.games {
			a, b := o.league.Team(pg.teamA), o.league.Team(pg.teamB)
			if a == nil || b == nil {
				continue
			}
			if _, ok := o.eval.CheckGame(o.sched, a, b, pg.slot, o.eval.BaseLimits()); !ok {
				dropped++
				continue
			}
			o.place(a, b, pg.slot, 0, "")
			placed++
		}
	}

	o.log.Info().
		Int("divisions", len(divisions)).
		Int("placed", placed).
		Int("dropped", dropped).
		Msg("stage A search merged")
	o.progress("division_search", 0)

	if ctx.Err() != nil {
		o.cancelled = true
	}
}

// searchDivision runs randomized restarts of a greedy fill with
// displacement for one division and keeps the best outcome: complete
// beats partial, then more games, then a higher soft score.
func (o *optimizer) searchDivision(ctx context.Context, div model.Division, divIndex int64, deadline time.Time) (res divSearch) {
	res.div = div
	defer func() {
		if r := recover(); r != nil {
			res.err = fmt.Errorf("%v", r)
		}
	}()

	teams := o.league.TeamsInDivision(div)
	if len(o.divSlots[div]) == 0 {
		return res
	}
	target := o.cfg.Rules.TargetGamesPerTeam
	lim := o.eval.BaseLimits()

	type outcome struct {
		games    []plannedGame
		complete bool
		score    int
	}
	var best *outcome

	for attempt := 0; attempt < stageAAttempts; attempt++ {
		if ctx.Err() != nil {
			break
		}
		if o.clock.Now().After(deadline) {
			res.budgetHit = true
			break
		}
		res.attempts = attempt + 1

		rng := rand.New(rand.NewSource(o.seed + divIndex*7919 + int64(attempt)))
		order := append([]*model.Team(nil), teams...)
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		shadow := model.NewSchedule()
		o.fillDivisionAttempt(shadow, order, target, lim)

		cand := &outcome{
			games:    extractPlanned(shadow),
			complete: allAtTarget(shadow, teams, target),
			score:    o.eval.SoftScore(shadow),
		}
		if best == nil ||
			(cand.complete && !best.complete) ||
			(cand.complete == best.complete && len(cand.games) > len(best.games)) ||
			(cand.complete == best.complete && len(cand.games) == len(best.games) && cand.score > best.score) {
			best = cand
		}
	}

	if best != nil {
		res.games = best.games
		res.complete = best.complete
	}
	return res
}

// fillDivisionAttempt greedily fills one division in a shadow schedule,
// always serving the team with the fewest games and displacing existing
// placements when a direct fit fails.
func (o *optimizer) fillDivisionAttempt(shadow *model.Schedule, order []*model.Team, target int, lim Limits) {
	blocked := make(map[string]bool)
	for {
		var next *model.Team
		nextGames := 0
		for _, t := range order {
			n := len(shadow.GamesForTeam(t.ID))
			if n >= target || blocked[t.ID] {
				continue
			}
			if next == nil || n < nextGames {
				next, nextGames = t, n
			}
		}
		if next == nil {
			return
		}

		filled := false
		for _, opp := range o.shadowOpponents(shadow, next, target, lim) {
			if o.shadowDisplacePair(shadow, next, opp, lim, 3) {
				filled = true
				break
			}
		}
		if !filled {
			blocked[next.ID] = true
		}
	}
}

// shadowOpponents lists the legal short opponents for a team, best pairing
// first.
func (o *optimizer) shadowOpponents(shadow *model.Schedule, t *model.Team, target int, lim Limits) []*model.Team {
	var opps []*model.Team
	for _, opp := range o.league.TeamsInDivision(t.Division) {
		if opp.ID == t.ID || opp.SchoolID == t.SchoolID {
			continue
		}
		if len(shadow.GamesForTeam(opp.ID)) >= target {
			continue
		}
		if !lim.AllowDoNotPlay && (t.DoNotPlay[opp.ID] || opp.DoNotPlay[t.ID]) {
			continue
		}
		if shadow.Rematches(t.ID, opp.ID) >= lim.MaxRematches {
			continue
		}
		opps = append(opps, opp)
	}
	sort.SliceStable(opps, func(i, j int) bool {
		si := o.eval.ScorePair(shadow, t, opps[i])
		sj := o.eval.ScorePair(shadow, t, opps[j])
		if si != sj {
			return si > sj
		}
		return opps[i].ID < opps[j].ID
	})
	return opps
}

// shadowDisplacePair tries to place the pair directly and, failing that,
// evicts a conflicting game and recursively re-homes it, up to depth
// levels deep. The shadow is left unchanged when it returns false.
func (o *optimizer) shadowDisplacePair(shadow *model.Schedule, a, b *model.Team, lim Limits, depth int) bool {
	if depth <= 0 {
		return false
	}
	if o.shadowPlacePair(shadow, a, b, lim) {
		return true
	}

	for _, slot := range o.divSlots[a.Division] {
		victim := shadow.AtSlot(slot)
		if victim == nil {
			continue
		}
		shadow.Remove(victim)
		if _, ok := o.eval.CheckGame(shadow, a, b, slot, lim); ok {
			g := shadowAdd(shadow, a, b, slot)
			va, vb := o.league.Team(victim.HomeTeamID), o.league.Team(victim.AwayTeamID)
			if va != nil && vb != nil && o.shadowDisplacePair(shadow, va, vb, lim, depth-1) {
				return true
			}
			shadow.Remove(g)
		}
		shadow.Add(victim)
	}
	return false
}

// shadowPlacePair places the pair at its best legal slot, if any.
func (o *optimizer) shadowPlacePair(shadow *model.Schedule, a, b *model.Team, lim Limits) bool {
	found := false
	var bestSlot model.TimeSlot
	bestScore := 0
	for _, slot := range o.divSlots[a.Division] {
		if shadow.AtSlot(slot) != nil {
			continue
		}
		if _, ok := o.eval.CheckGame(shadow, a, b, slot, lim); !ok {
			continue
		}
		score := o.eval.ScoreSlot(shadow, a, b, slot)
		if !found || score > bestScore {
			found, bestSlot, bestScore = true, slot, score
		}
	}
	if !found {
		return false
	}
	shadowAdd(shadow, a, b, bestSlot)
	return true
}

// shadowAdd records a provisional game. Facility ownership picks the
// provisional home side so soft scoring sees a realistic shape; the real
// assignment happens at merge with the master RNG.
func shadowAdd(shadow *model.Schedule, a, b *model.Team, slot model.TimeSlot) *model.Game {
	home, away := a, b
	if b.HomeFacilityID == slot.FacilityID && a.HomeFacilityID != slot.FacilityID {
		home, away = b, a
	}
	g := &model.Game{
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		Division:   a.Division,
		Slot:       slot,
		Status:     model.GameScheduled,
	}
	shadow.Add(g)
	return g
}

func extractPlanned(shadow *model.Schedule) []plannedGame {
	shadow.Sort()
	out := make([]plannedGame, 0, shadow.Len())
	for _, g := range shadow.Games {
		out = append(out, plannedGame{teamA: g.HomeTeamID, teamB: g.AwayTeamID, slot: g.Slot})
	}
	return out
}

func allAtTarget(s *model.Schedule, teams []*model.Team, target int) bool {
	for _, t := range teams {
		if len(s.GamesForTeam(t.ID)) != target {
			return false
		}
	}
	return true
}

// stageB runs the progressive greedy passes. It always runs at least one
// pass: on a perfect stage A result the pass finds nothing to do, which is
// the verification the final invariants rely on.
func (o *optimizer) stageB(ctx context.Context) {
	for pass := 0; pass < o.cfg.Rules.GreedyMaxPasses; pass++ {
		if ctx.Err() != nil {
			o.cancelled = true
			return
		}

		lim := o.limitsForPass(pass)
		var added []*model.Game
		if pass == 0 {
			added = append(added, o.seedBlocks(pass, lim)...)
		}
		filled, interrupted := o.fillPass(ctx, pass, lim)
		added = append(added, filled...)
		if interrupted {
			o.rollback(added)
			o.cancelled = true
			return
		}

		short := len(o.shortTeams())
		o.log.Debug().
			Int("pass", pass).
			Int("added", len(added)).
			Int("short_teams", short).
			Msg("greedy pass complete")
		o.progress("greedy", pass)
		if short == 0 {
			if pass == 0 && len(added) == 0 {
				o.log.Info().Msg("stage B verified stage A result, no changes")
			}
			return
		}
	}
}

// limitsForPass maps a pass index to its relaxation tier. With the default
// twenty passes: 0-9 strict, 10-14 shorter gap plus one extra rematch,
// 15-19 same-day play and do-not-play as a last resort.
func (o *optimizer) limitsForPass(pass int) Limits {
	lim := o.eval.BaseLimits()
	passes := o.cfg.Rules.GreedyMaxPasses
	switch {
	case pass*2 < passes:
	case pass*4 < passes*3:
		lim.MinDayGap = 1
		lim.MaxRematches++
	default:
		lim.MinDayGap = 0
		lim.MaxRematches++
		lim.AllowDoNotPlay = true
	}
	return lim
}

// seedBlocks sweeps the ranked school matchups, placing each bundle of
// games into the best free run of consecutive slots on one court. Sweeps
// repeat until a full pass places nothing; the ranking is refreshed
// before each sweep so matchups the schedule has already fed sink behind
// fresher ones.
func (o *optimizer) seedBlocks(pass int, lim Limits) []*model.Game {
	matchups := o.planner.Plan(o.league)
	var added []*model.Game
	for {
		o.rankMatchups(matchups)
		progress := false
		for _, m := range matchups {
			games := o.placeMatchup(m, pass, lim)
			if len(games) > 0 {
				progress = true
				added = append(added, games...)
			}
		}
		if !progress {
			break
		}
	}
	o.log.Debug().Int("games", len(added)).Msg("block seeding complete")
	return added
}

// rankMatchups reorders matchups by planned score less the live rematch
// drain, the same per-meeting drain ScorePair charges. Ties break on the
// pair key.
func (o *optimizer) rankMatchups(matchups []*matchup.SchoolMatchup) {
	w := o.cfg.PriorityWeights
	live := make(map[string]int, len(matchups))
	for _, m := range matchups {
		score := m.Score
		for _, p := range m.Pairings {
			score -= o.sched.Rematches(p.TeamA, p.TeamB) * w.RespectRivals / 2
		}
		live[m.Key()] = score
	}
	sort.SliceStable(matchups, func(a, b int) bool {
		sa, sb := live[matchups[a].Key()], live[matchups[b].Key()]
		if sa != sb {
			return sa > sb
		}
		return matchups[a].Key() < matchups[b].Key()
	})
}

func (o *optimizer) placeMatchup(m *matchup.SchoolMatchup, pass int, lim Limits) []*model.Game {
	target := o.cfg.Rules.TargetGamesPerTeam

	type pair struct {
		a, b *model.Team
	}
	var pairs []pair
	for _, p := range m.Pairings {
		a, b := o.league.Team(p.TeamA), o.league.Team(p.TeamB)
		if a == nil || b == nil {
			continue
		}
		if len(o.sched.GamesForTeam(a.ID)) >= target || len(o.sched.GamesForTeam(b.ID)) >= target {
			continue
		}
		if o.sched.Rematches(a.ID, b.ID) >= lim.MaxRematches {
			continue
		}
		pairs = append(pairs, pair{a, b})
	}
	if len(pairs) == 0 {
		return nil
	}

	bestBlock, bestStart, bestScore := -1, -1, 0
	for bi, block := range o.blocks {
		f := o.league.Facility(block.FacilityID)
		if f == nil {
			continue
		}
		eligible := true
		for _, p := range pairs {
			if !f.EligibleFor(p.a.Division) {
				eligible = false
				break
			}
		}
		if !eligible {
			continue
		}

		for start := 0; start+len(pairs) <= len(block.Slots); start++ {
			score, ok := 0, true
			for i, p := range pairs {
				slot := block.Slots[start+i]
				if o.sched.AtSlot(slot) != nil {
					ok = false
					break
				}
				if _, legal := o.eval.CheckGame(o.sched, p.a, p.b, slot, lim); !legal {
					ok = false
					break
				}
				score += o.eval.ScorePair(o.sched, p.a, p.b) + o.eval.ScoreSlot(o.sched, p.a, p.b, slot)
			}
			if ok && (bestBlock < 0 || score > bestScore) {
				bestBlock, bestStart, bestScore = bi, start, score
			}
		}
	}
	if bestBlock < 0 {
		return nil
	}

	block := o.blocks[bestBlock]
	games := make([]*model.Game, 0, len(pairs))
	for i, p := range pairs {
		slot := block.Slots[bestStart+i]
		relaxed := ""
		if reason, ok := o.eval.CheckGame(o.sched, p.a, p.b, slot, o.eval.BaseLimits()); !ok {
			relaxed = reason
		}
		games = append(games, o.place(p.a, p.b, slot, pass, relaxed))
	}
	return games
}

// fillPass serves the neediest team repeatedly until no short team can be
// helped under the pass limits. Returns the games added and whether the
// context interrupted the pass.
func (o *optimizer) fillPass(ctx context.Context, pass int, lim Limits) ([]*model.Game, bool) {
	var added []*model.Game
	blocked := make(map[string]bool)
	for {
		if ctx.Err() != nil {
			return added, true
		}
		t := o.neediestTeam(blocked)
		if t == nil {
			return added, false
		}
		g := o.placeBestFor(t, pass, lim)
		if g == nil {
			blocked[t.ID] = true
			continue
		}
		added = append(added, g)
	}
}

// neediestTeam picks the short team with the fewest games; ties go to the
// team whose best available pairing scores highest, then to id order.
func (o *optimizer) neediestTeam(blocked map[string]bool) *model.Team {
	target := o.cfg.Rules.TargetGamesPerTeam
	var best *model.Team
	bestGames, bestScore := 0, 0
	for _, t := range o.league.Teams {
		if blocked[t.ID] {
			continue
		}
		n := len(o.sched.GamesForTeam(t.ID))
		if n >= target {
			continue
		}
		s := o.bestPairScore(t)
		if best == nil || n < bestGames || (n == bestGames && s > bestScore) {
			best, bestGames, bestScore = t, n, s
		}
	}
	return best
}

func (o *optimizer) bestPairScore(t *model.Team) int {
	target := o.cfg.Rules.TargetGamesPerTeam
	best := 0
	found := false
	for _, opp := range o.league.TeamsInDivision(t.Division) {
		if opp.ID == t.ID || opp.SchoolID == t.SchoolID {
			continue
		}
		if len(o.sched.GamesForTeam(opp.ID)) >= target {
			continue
		}
		if t.DoNotPlay[opp.ID] || opp.DoNotPlay[t.ID] {
			continue
		}
		s := o.eval.ScorePair(o.sched, t, opp)
		if !found || s > best {
			found, best = true, s
		}
	}
	return best
}

// placeBestFor places the highest-scoring legal game for the team under
// the pass limits, or returns nil when nothing fits.
func (o *optimizer) placeBestFor(t *model.Team, pass int, lim Limits) *model.Game {
	target := o.cfg.Rules.TargetGamesPerTeam

	type ranked struct {
		opp   *model.Team
		score int
	}
	var opponents []ranked
	for _, opp := range o.league.TeamsInDivision(t.Division) {
		if opp.ID == t.ID || opp.SchoolID == t.SchoolID {
			continue
		}
		if len(o.sched.GamesForTeam(opp.ID)) >= target {
			continue
		}
		dnp := t.DoNotPlay[opp.ID] || opp.DoNotPlay[t.ID]
		if dnp && !lim.AllowDoNotPlay {
			continue
		}
		if o.sched.Rematches(t.ID, opp.ID) >= lim.MaxRematches {
			continue
		}
		score := o.eval.ScorePair(o.sched, t, opp)
		if dnp {
			score -= dnpPenalty
		}
		opponents = append(opponents, ranked{opp, score})
	}
	sort.SliceStable(opponents, func(i, j int) bool {
		if opponents[i].score != opponents[j].score {
			return opponents[i].score > opponents[j].score
		}
		return opponents[i].opp.ID < opponents[j].opp.ID
	})

	for _, r := range opponents {
		slot, relaxed, ok := o.bestSlotFor(t, r.opp, lim)
		if !ok {
			continue
		}
		return o.place(t, r.opp, slot, pass, relaxed)
	}
	return nil
}

// bestSlotFor scans the division's slot pool for the best legal slot. A
// slot legal only under the relaxed pass limits carries the violated rule
// name and a heavy penalty so clean slots always win when available.
func (o *optimizer) bestSlotFor(a, b *model.Team, lim Limits) (model.TimeSlot, string, bool) {
	var bestSlot model.TimeSlot
	bestRelaxed := ""
	bestScore := 0
	found := false
	for _, slot := range o.divSlots[a.Division] {
		if o.sched.AtSlot(slot) != nil {
			continue
		}
		relaxed := ""
		if reason, ok := o.eval.CheckGame(o.sched, a, b, slot, o.eval.BaseLimits()); !ok {
			if _, relaxedOK := o.eval.CheckGame(o.sched, a, b, slot, lim); !relaxedOK {
				continue
			}
			relaxed = reason
		}
		score := o.eval.ScoreSlot(o.sched, a, b, slot)
		if relaxed != "" {
			score -= relaxPenalty
		}
		if !found || score > bestScore {
			found, bestSlot, bestRelaxed, bestScore = true, slot, relaxed, score
		}
	}
	return bestSlot, bestRelaxed, found
}

// desperateFill is the last resort after every pass tier: frequency caps
// and soft preferences are dropped and remaining short teams go into any
// structurally legal slot.
func (o *optimizer) desperateFill(ctx context.Context) {
	lim := Limits{
		MinDayGap:        0,
		MaxRematches:     o.cfg.Rules.MaxRematches + 1,
		AllowDoNotPlay:   true,
		EnforceFrequency: false,
	}
	added, interrupted := o.fillPass(ctx, o.cfg.Rules.GreedyMaxPasses, lim)
	if interrupted {
		o.rollback(added)
		o.cancelled = true
		return
	}
	if len(added) > 0 {
		o.log.Warn().Int("games", len(added)).Msg("desperate fill placed games with frequency caps dropped")
	}
	o.progress("desperate_fill", o.cfg.Rules.GreedyMaxPasses)
}

// place commits a game to the master schedule: home/away assignment, a
// deterministic division-sequenced id, doubleheader bookkeeping and the
// relaxation record when the placement needed one.
func (o *optimizer) place(a, b *model.Team, slot model.TimeSlot, pass int, relaxedRule string) *model.Game {
	home, away := chooseHome(o.sched, a, b, slot.FacilityID, o.cfg.Rules.TargetGamesPerTeam, o.rng)

	isDoubleheader := len(o.sched.GamesForTeamOn(home.ID, slot.Date)) > 0 ||
		len(o.sched.GamesForTeamOn(away.ID, slot.Date)) > 0

	status := model.GameScheduled
	var bent []string
	if relaxedRule != "" {
		status = model.GameRelaxed
		// A late-pass placement can bend several base rules at once; each
		// gets its own record so re-validation finds them all covered.
		bent = o.eval.BaseViolations(o.sched, home, away, slot)
		if len(bent) == 0 {
			bent = []string{relaxedRule}
		}
	}

	g := &model.Game{
		ID:             o.nextID(a.Division),
		HomeTeamID:     home.ID,
		AwayTeamID:     away.ID,
		Division:       a.Division,
		Slot:           slot,
		IsDoubleheader: isDoubleheader,
		OfficialsCount: a.Division.Traits().Officials,
		Status:         status,
	}
	o.sched.Add(g)

	for _, rule := range bent {
		o.relaxations = append(o.relaxations, model.Relaxation{
			GameID: g.ID,
			Pass:   pass,
			Rule:   rule,
			Detail: fmt.Sprintf("%s vs %s on %s", home.ID, away.ID, model.DateKey(slot.Date)),
		})
	}
	return g
}

func (o *optimizer) nextID(d model.Division) string {
	o.seq[d]++
	return fmt.Sprintf("%s-%03d", d.Traits().Slug, o.seq[d])
}

// rollback withdraws the games added by an interrupted pass so no partial
// mutation survives cancellation.
func (o *optimizer) rollback(added []*model.Game) {
	if len(added) == 0 {
		return
	}
	removed := make(map[string]bool, len(added))
	for _, g := range added {
		o.sched.Remove(g)
		removed[g.ID] = true
	}
	kept := o.relaxations[:0]
	for _, r := range o.relaxations {
		if !removed[r.GameID] {
			kept = append(kept, r)
		}
	}
	o.relaxations = kept
}

func (o *optimizer) shortTeams() []*model.Team {
	target := o.cfg.Rules.TargetGamesPerTeam
	var out []*model.Team
	for _, t := range o.league.Teams {
		if len(o.sched.GamesForTeam(t.ID)) < target {
			out = append(out, t)
		}
	}
	return out
}
