package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/goleaf/tribal-clone-sub002/internal/config"
	"github.com/goleaf/tribal-clone-sub002/internal/engine"
	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

func testUnits() []game.UnitType {
	return []game.UnitType{
		{Model: gorm.Model{ID: 1}, Name: "Axe Fighter", InternalName: "axe_fighter", Attack: 40, Defense: 10, DefenseCavalry: 5, DefenseArcher: 10, CarryCapacity: 10, Population: 1, Speed: 18},
		{Model: gorm.Model{ID: 2}, Name: "Spear Fighter", InternalName: "spear_fighter", Attack: 10, Defense: 15, DefenseCavalry: 45, DefenseArcher: 20, CarryCapacity: 25, Population: 1, Speed: 18},
		{Model: gorm.Model{ID: 3}, Name: "Scout", InternalName: "scout", Defense: 2, DefenseCavalry: 1, DefenseArcher: 2, Population: 2, Speed: 9},
		{Model: gorm.Model{ID: 4}, Name: "Ram", InternalName: "ram", Attack: 2, Defense: 20, DefenseCavalry: 50, DefenseArcher: 20, Population: 5, Speed: 30},
		{Model: gorm.Model{ID: 5}, Name: "Nobleman", InternalName: "nobleman", Attack: 30, Defense: 100, DefenseCavalry: 50, DefenseArcher: 100, Population: 100, Speed: 35},
	}
}

func testWorld() config.World {
	return config.World{Speed: 1.0, LoyaltyEnabled: true, SiegeDamageEnabled: true, LuckSpread: 0.25}
}

// twoVillageRepo seeds two players, each with one village. The source
// village has a rally point so dispatch works out of the box.
func twoVillageRepo() *memRepo {
	m := newMemRepo(testUnits())
	m.users[1] = &game.User{Model: gorm.Model{ID: 1}, Name: "Halvar"}
	m.users[2] = &game.User{Model: gorm.Model{ID: 2}, Name: "Maerwyn"}
	m.villages[1] = &game.Village{Model: gorm.Model{ID: 1}, UserID: 1, Name: "Northwatch", X: 500, Y: 500, Loyalty: 100}
	m.villages[2] = &game.Village{Model: gorm.Model{ID: 2}, UserID: 2, Name: "Eastmere", X: 503, Y: 504, Wood: 1000, Clay: 1000, Iron: 1000, Loyalty: 100}
	m.buildings[1] = map[string]int{game.BuildingRallyPoint: 1}
	m.buildings[2] = map[string]int{}
	return m
}

func testService(m *memRepo, rng engine.Rng, at time.Time) *Service {
	s := New(m, testWorld(), rng)
	s.now = func() time.Time { return at }
	return s
}

func seedOperation(m *memRepo, kind game.OperationKind, manifest []game.OperationStack, dispatched, arrives time.Time) *game.Operation {
	op := &game.Operation{
		PublicID:        "test-op",
		SourceVillageID: 1,
		TargetVillageID: 2,
		Kind:            kind,
		DispatchedAt:    dispatched,
		ArrivesAt:       arrives,
		Manifest:        manifest,
	}
	_ = m.CreateOperation(op)
	return op
}

func TestResolveBattleAppliesAllEffects(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[2] = map[uint]int{2: 20} // 20 spears

	op := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 100}},
		t0.Add(-2*time.Hour), t0.Add(-time.Minute))

	// Neutral luck on both rolls.
	s := testService(m, &scriptedRng{floats: []float64{0.5, 0.5}}, t0)
	if err := s.ResolveOperation(op.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 4000 attack vs 300 defense: attacker wins at the 30% loss floor,
	// the garrison is wiped.
	if n := m.garrisons[2][2]; n != 0 {
		t.Fatalf("expected defender garrison wiped, got %d spears", n)
	}
	br, err := m.GetBattleReportByOperationID(op.ID)
	if err != nil {
		t.Fatalf("expected battle report: %v", err)
	}
	if !br.AttackerWon {
		t.Fatalf("expected attacker victory")
	}
	out, err := game.DecodeBattleOutcome(br.Outcome)
	if err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if len(out.AttackerLosses) != 1 || out.AttackerLosses[0].Lost != 30 || out.AttackerLosses[0].Remaining != 70 {
		t.Fatalf("unexpected attacker losses: %+v", out.AttackerLosses)
	}

	// 70 survivors carry 700; 850 of each resource is unhidden, so the
	// full capacity is hauled, remainder on iron.
	if out.Loot.Total() != 700 {
		t.Fatalf("expected 700 loot, got %d", out.Loot.Total())
	}
	v := m.villages[2]
	if v.Wood+v.Clay+v.Iron != 3000-700 {
		t.Fatalf("loot was not debited from the village: %d left", v.Wood+v.Clay+v.Iron)
	}

	// Survivors march home on a synthetic return operation.
	var ret *game.Operation
	for _, o := range m.operations {
		if o.Kind == game.OperationReturn {
			ret = o
		}
	}
	if ret == nil {
		t.Fatalf("expected a return operation")
	}
	if ret.SourceVillageID != 2 || ret.TargetVillageID != 1 {
		t.Fatalf("return operation goes the wrong way: %d -> %d", ret.SourceVillageID, ret.TargetVillageID)
	}
	if len(ret.Manifest) != 1 || ret.Manifest[0].Count != 70 {
		t.Fatalf("unexpected return manifest: %+v", ret.Manifest)
	}

	if len(m.reportsFor(1)) != 1 || len(m.reportsFor(2)) != 1 {
		t.Fatalf("expected one inbox report per participant")
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[2] = map[uint]int{2: 20}

	op := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 100}},
		t0.Add(-2*time.Hour), t0.Add(-time.Minute))

	s := testService(m, &scriptedRng{}, t0)
	if err := s.ResolveOperation(op.ID); err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	reports := len(m.reports)

	if err := s.ResolveOperation(op.ID); !errors.Is(err, ErrAlreadyResolved) {
		t.Fatalf("expected ErrAlreadyResolved, got %v", err)
	}
	if len(m.reports) != reports {
		t.Fatalf("second resolve produced new reports")
	}
}

func TestResolveBeforeArrival(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	op := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 10}},
		t0, t0.Add(time.Hour))

	s := testService(m, &scriptedRng{}, t0)
	if err := s.ResolveOperation(op.ID); !errors.Is(err, ErrNotDue) {
		t.Fatalf("expected ErrNotDue, got %v", err)
	}
	if !m.operations[op.ID].Pending() {
		t.Fatalf("early resolve must not consume the operation")
	}
}

func TestConquestTransfersOwnership(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.villages[2].Loyalty = 20
	m.garrisons[2] = map[uint]int{2: 5}

	op := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 200}, {UnitTypeID: 5, Count: 1}},
		t0.Add(-2*time.Hour), t0.Add(-time.Minute))

	// Neutral luck, minimum loyalty roll (20) still empties 20 loyalty.
	s := testService(m, &scriptedRng{floats: []float64{0.5, 0.5}, ints: []int{0}}, t0)
	if err := s.ResolveOperation(op.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v := m.villages[2]
	if v.UserID != 1 {
		t.Fatalf("expected village to change hands, owner is %d", v.UserID)
	}
	if v.Loyalty != engine.LoyaltyAfterConquest {
		t.Fatalf("expected loyalty reset to %d, got %d", engine.LoyaltyAfterConquest, v.Loyalty)
	}

	// The survivors garrison the conquered village instead of returning.
	if m.garrisons[2][1] == 0 {
		t.Fatalf("expected surviving attackers stationed in the conquered village")
	}
	for _, o := range m.operations {
		if o.Kind == game.OperationReturn {
			t.Fatalf("conquest must not spawn a return operation")
		}
	}

	br, err := m.GetBattleReportByOperationID(op.ID)
	if err != nil {
		t.Fatalf("expected battle report: %v", err)
	}
	out, err := game.DecodeBattleOutcome(br.Outcome)
	if err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if !out.Conquered || out.Loyalty == nil || out.Loyalty.After != engine.LoyaltyAfterConquest {
		t.Fatalf("outcome does not record the conquest: %+v", out.Loyalty)
	}
}

func TestProcessDueResolvesEverythingDue(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[2] = map[uint]int{2: 20}

	due := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 50}},
		t0.Add(-2*time.Hour), t0.Add(-time.Minute))
	future := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 10}},
		t0, t0.Add(time.Hour))

	s := testService(m, &scriptedRng{}, t0)
	summary, err := s.ProcessDue(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Due != 1 || summary.Resolved != 1 || summary.Failed != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if m.operations[due.ID].Pending() {
		t.Fatalf("due operation was not resolved")
	}
	if !m.operations[future.ID].Pending() {
		t.Fatalf("future operation must stay pending")
	}
}

func TestProcessDueMessagesCarryBattleOutcome(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := func() *memRepo {
		m := twoVillageRepo()
		m.garrisons[2] = map[uint]int{2: 20}
		seedOperation(m, game.OperationAttack,
			[]game.OperationStack{{UnitTypeID: 1, Count: 100}},
			t0.Add(-2*time.Hour), t0.Add(-time.Minute))
		return m
	}

	// The attacker's sweep reads the victory and the haul off the report.
	s := testService(seed(), &scriptedRng{}, t0)
	summary, err := s.ProcessDue(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Messages) != 1 {
		t.Fatalf("expected one message, got %+v", summary.Messages)
	}
	if msg := summary.Messages[0]; !strings.Contains(msg, "won") || !strings.Contains(msg, "700") {
		t.Fatalf("attacker message misses the outcome: %q", msg)
	}

	// The defender's sweep sees the same battle from the other side.
	s = testService(seed(), &scriptedRng{}, t0)
	summary, err = s.ProcessDue(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Messages) != 1 {
		t.Fatalf("expected one message, got %+v", summary.Messages)
	}
	if msg := summary.Messages[0]; !strings.Contains(msg, "overrun") || !strings.Contains(msg, "700") {
		t.Fatalf("defender message misses the outcome: %q", msg)
	}
}

func TestProcessDueHidesCleanSpyFromDefender(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// No resident scouts and no wall: the mission succeeds without a
	// single intruder dying.
	seed := func() *memRepo {
		m := twoVillageRepo()
		seedOperation(m, game.OperationSpy,
			[]game.OperationStack{{UnitTypeID: 3, Count: 5}},
			t0.Add(-time.Hour), t0.Add(-time.Minute))
		return m
	}

	s := testService(seed(), &scriptedRng{}, t0)
	summary, err := s.ProcessDue(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(summary.Messages) != 1 {
		t.Fatalf("expected one message, got %+v", summary.Messages)
	}
	if msg := summary.Messages[0]; !strings.Contains(msg, "succeeded") || !strings.Contains(msg, "5 of 5") {
		t.Fatalf("attacker spy message misses the outcome: %q", msg)
	}

	s = testService(seed(), &scriptedRng{}, t0)
	summary, err = s.ProcessDue(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Resolved != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(summary.Messages) != 0 {
		t.Fatalf("clean mission must stay invisible to the defender: %+v", summary.Messages)
	}
}

func TestFailedResolutionNotesBothSides(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()

	seedOperation(m, game.OperationKind("plague"),
		[]game.OperationStack{{UnitTypeID: 1, Count: 10}},
		t0.Add(-time.Hour), t0.Add(-time.Minute))

	s := testService(m, &scriptedRng{}, t0)
	summary, err := s.ProcessDue(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Failed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	src := m.reportsFor(1)
	if len(src) != 1 || src[0].Kind != game.ReportKindAttack {
		t.Fatalf("unexpected source-side failure note: %+v", src)
	}
	dst := m.reportsFor(2)
	if len(dst) != 1 || dst[0].Kind != game.ReportKindDefense {
		t.Fatalf("unexpected target-side failure note: %+v", dst)
	}
}

func TestResolveSupportMergesGarrison(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[2] = map[uint]int{2: 5}

	op := seedOperation(m, game.OperationSupport,
		[]game.OperationStack{{UnitTypeID: 2, Count: 30}},
		t0.Add(-time.Hour), t0.Add(-time.Minute))

	s := testService(m, &scriptedRng{}, t0)
	if err := s.ResolveOperation(op.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := m.garrisons[2][2]; n != 35 {
		t.Fatalf("expected 35 spears after support, got %d", n)
	}
	reports := m.reportsFor(2)
	if len(reports) != 1 || reports[0].Kind != game.ReportKindSupport {
		t.Fatalf("expected one support report for the host, got %+v", reports)
	}
}
