package service

import (
	"errors"
	"testing"
	"time"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

func TestDispatchDebitsGarrisonAndComputesTravel(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[1] = map[uint]int{1: 50}

	s := testService(m, &scriptedRng{}, t0)
	result, err := s.Dispatch(1, DispatchRequest{
		SourceVillageID: 1,
		TargetVillageID: 2,
		Kind:            game.OperationAttack,
		Units:           map[string]int{"axe_fighter": 50},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := m.garrisons[1][1]; n != 0 {
		t.Fatalf("expected garrison debited to 0, got %d", n)
	}

	// Distance (500,500)-(503,504) is 5 fields, axes do 18 h/field.
	wantSeconds := 5 * 18 * 3600
	if result.TravelSeconds != wantSeconds {
		t.Fatalf("expected %d travel seconds, got %d", wantSeconds, result.TravelSeconds)
	}
	op := result.Operation
	if !op.ArrivesAt.Equal(t0.Add(time.Duration(wantSeconds) * time.Second)) {
		t.Fatalf("unexpected arrival time %v", op.ArrivesAt)
	}
	if op.PublicID == "" {
		t.Fatalf("expected a public id on the operation")
	}
}

func TestDispatchValidation(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[1] = map[uint]int{1: 10, 3: 4}
	s := testService(m, &scriptedRng{}, t0)

	cases := []struct {
		name string
		req  DispatchRequest
		want error
	}{
		{"unknown kind", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: "siege", Units: map[string]int{"axe_fighter": 1}}, ErrUnknownKind},
		{"return not dispatchable", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: game.OperationReturn, Units: map[string]int{"axe_fighter": 1}}, ErrUnknownKind},
		{"self target", DispatchRequest{SourceVillageID: 1, TargetVillageID: 1, Kind: game.OperationAttack, Units: map[string]int{"axe_fighter": 1}}, ErrSelfTarget},
		{"no units", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: game.OperationAttack, Units: map[string]int{}}, ErrNoUnitsSelected},
		{"zero counts", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: game.OperationAttack, Units: map[string]int{"axe_fighter": 0}}, ErrNoUnitsSelected},
		{"unknown unit", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: game.OperationAttack, Units: map[string]int{"war_elephant": 3}}, ErrUnknownUnit},
		{"insufficient garrison", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: game.OperationAttack, Units: map[string]int{"axe_fighter": 11}}, ErrInsufficientGarrison},
		{"foreign village", DispatchRequest{SourceVillageID: 2, TargetVillageID: 1, Kind: game.OperationAttack, Units: map[string]int{"axe_fighter": 1}}, ErrNotYourVillage},
		{"spy with non-scouts", DispatchRequest{SourceVillageID: 1, TargetVillageID: 2, Kind: game.OperationSpy, Units: map[string]int{"scout": 2, "axe_fighter": 1}}, ErrNonScoutInSpy},
	}
	for _, tc := range cases {
		if _, err := s.Dispatch(1, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}

	// Validation failures must not leak garrison debits.
	if m.garrisons[1][1] != 10 || m.garrisons[1][3] != 4 {
		t.Fatalf("garrison changed by failed dispatches: %+v", m.garrisons[1])
	}
}

func TestDispatchRequiresRallyPoint(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.buildings[1] = map[string]int{}
	m.garrisons[1] = map[uint]int{1: 10}

	s := testService(m, &scriptedRng{}, t0)
	_, err := s.Dispatch(1, DispatchRequest{
		SourceVillageID: 1, TargetVillageID: 2,
		Kind: game.OperationAttack, Units: map[string]int{"axe_fighter": 5},
	})
	if !errors.Is(err, ErrNoRallyPoint) {
		t.Fatalf("expected ErrNoRallyPoint, got %v", err)
	}
}

func TestCancelSpawnsReturnMarch(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	m.garrisons[1] = map[uint]int{1: 50}

	s := testService(m, &scriptedRng{}, t0)
	result, err := s.Dispatch(1, DispatchRequest{
		SourceVillageID: 1, TargetVillageID: 2,
		Kind: game.OperationAttack, Units: map[string]int{"axe_fighter": 50},
	})
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Cancel ten minutes into the march: the force turns around and
	// takes the covered distance to get home.
	s.now = func() time.Time { return t0.Add(10 * time.Minute) }
	cancel, err := s.Cancel(result.Operation.ID, 1)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	ret := cancel.ReturnOperation
	if ret.Kind != game.OperationReturn {
		t.Fatalf("expected a return operation, got %s", ret.Kind)
	}
	if !ret.ArrivesAt.Equal(t0.Add(20 * time.Minute)) {
		t.Fatalf("return should take the covered 10 minutes, arrives %v", ret.ArrivesAt)
	}
	if len(ret.Manifest) != 1 || ret.Manifest[0].Count != 50 {
		t.Fatalf("return manifest must mirror the original: %+v", ret.Manifest)
	}
	if m.operations[result.Operation.ID].Pending() {
		t.Fatalf("canceled operation still pending")
	}
}

func TestCancelAfterArrivalFails(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	op := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 10}},
		t0.Add(-2*time.Hour), t0.Add(-time.Minute))

	s := testService(m, &scriptedRng{}, t0)
	if _, err := s.Cancel(op.ID, 1); !errors.Is(err, ErrCancelTooLate) {
		t.Fatalf("expected ErrCancelTooLate, got %v", err)
	}
}

func TestCancelForeignOperationFails(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := twoVillageRepo()
	op := seedOperation(m, game.OperationAttack,
		[]game.OperationStack{{UnitTypeID: 1, Count: 10}},
		t0, t0.Add(time.Hour))

	s := testService(m, &scriptedRng{}, t0)
	if _, err := s.Cancel(op.ID, 2); !errors.Is(err, ErrNotYourOperation) {
		t.Fatalf("expected ErrNotYourOperation, got %v", err)
	}
}
