package service

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/storage"
)

// memRepo is an in-memory Repository used by the service tests.
// InTransaction runs the callback against the same state; rollback
// behavior is not simulated.
type memRepo struct {
	units      []game.UnitType
	users      map[uint]*game.User
	villages   map[uint]*game.Village
	garrisons  map[uint]map[uint]int // villageID -> unitTypeID -> count
	buildings  map[uint]map[string]int
	research   map[uint]map[string]int
	operations map[uint]*game.Operation
	battles    []game.BattleReport
	reports    []game.Report
	nextOpID   uint
}

func newMemRepo(units []game.UnitType) *memRepo {
	return &memRepo{
		units:      units,
		users:      map[uint]*game.User{},
		villages:   map[uint]*game.Village{},
		garrisons:  map[uint]map[uint]int{},
		buildings:  map[uint]map[string]int{},
		research:   map[uint]map[string]int{},
		operations: map[uint]*game.Operation{},
		nextOpID:   100,
	}
}

func (m *memRepo) InTransaction(fn func(storage.Repository) error) error { return fn(m) }

func (m *memRepo) GetUnitTypes() ([]game.UnitType, error) { return m.units, nil }

func (m *memRepo) UpsertUser(email, uuid, name string) (*game.User, error) {
	return nil, errors.New("not implemented")
}

func (m *memRepo) GetUserByEmail(email string) (*game.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) GetUserByID(id uint) (*game.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) GetUserPoints(userID uint) (int, error) {
	total := 0
	for _, v := range m.villages {
		if v.UserID != userID {
			continue
		}
		for _, lvl := range m.buildings[v.ID] {
			total += lvl
		}
	}
	return total, nil
}

func (m *memRepo) GetVillageByID(id uint) (*game.Village, error) {
	if v, ok := m.villages[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) GetVillagesByUserID(userID uint) ([]game.Village, error) {
	var out []game.Village
	for _, v := range m.villages {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memRepo) SaveVillage(v *game.Village) error {
	m.villages[v.ID] = v
	return nil
}

func (m *memRepo) GetGarrison(villageID uint) ([]game.UnitStack, error) {
	var out []game.UnitStack
	// Stable order keeps scripted RNG tests deterministic.
	for _, u := range m.units {
		if n, ok := m.garrisons[villageID][u.ID]; ok && n > 0 {
			out = append(out, game.UnitStack{VillageID: villageID, UnitTypeID: u.ID, Count: n})
		}
	}
	return out, nil
}

func (m *memRepo) AdjustUnitStack(villageID, unitTypeID uint, delta int) error {
	g := m.garrisons[villageID]
	if g == nil {
		g = map[uint]int{}
		m.garrisons[villageID] = g
	}
	next := g[unitTypeID] + delta
	if next < 0 {
		return fmt.Errorf("unit stack underflow: village %d unit %d", villageID, unitTypeID)
	}
	if next == 0 {
		delete(g, unitTypeID)
		return nil
	}
	g[unitTypeID] = next
	return nil
}

func (m *memRepo) DeleteGarrison(villageID uint) error {
	delete(m.garrisons, villageID)
	return nil
}

func (m *memRepo) GetBuildingLevel(villageID uint, internalName string) (int, error) {
	return m.buildings[villageID][internalName], nil
}

func (m *memRepo) SetBuildingLevel(villageID uint, internalName string, level int) error {
	b := m.buildings[villageID]
	if b == nil {
		b = map[string]int{}
		m.buildings[villageID] = b
	}
	b[internalName] = level
	return nil
}

func (m *memRepo) GetAllBuildingLevels(villageID uint) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range m.buildings[villageID] {
		out[k] = v
	}
	return out, nil
}

func (m *memRepo) GetResearchLevel(villageID uint, internalName string) (int, error) {
	return m.research[villageID][internalName], nil
}

func (m *memRepo) GetAllResearchLevels(villageID uint) (map[string]int, error) {
	out := map[string]int{}
	for k, v := range m.research[villageID] {
		out[k] = v
	}
	return out, nil
}

func (m *memRepo) CreateOperation(op *game.Operation) error {
	m.nextOpID++
	op.ID = m.nextOpID
	m.operations[op.ID] = op
	return nil
}

func (m *memRepo) GetOperationByID(id uint) (*game.Operation, error) {
	if op, ok := m.operations[id]; ok {
		return op, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) MarkOperationCompleted(id uint) (bool, error) {
	op, ok := m.operations[id]
	if !ok || op.IsCompleted || op.IsCanceled {
		return false, nil
	}
	op.IsCompleted = true
	return true, nil
}

func (m *memRepo) MarkOperationCanceled(id uint, now time.Time) (bool, error) {
	op, ok := m.operations[id]
	if !ok || op.IsCompleted || op.IsCanceled || !op.ArrivesAt.After(now) {
		return false, nil
	}
	op.IsCanceled = true
	return true, nil
}

func (m *memRepo) FindDueOperations(villageIDs []uint, now time.Time) ([]game.Operation, error) {
	mine := map[uint]bool{}
	for _, id := range villageIDs {
		mine[id] = true
	}
	var out []game.Operation
	for _, op := range m.operations {
		if op.Pending() && !op.ArrivesAt.After(now) && (mine[op.SourceVillageID] || mine[op.TargetVillageID]) {
			out = append(out, *op)
		}
	}
	return out, nil
}

func (m *memRepo) FindPendingOperationsBySource(villageIDs []uint) ([]game.Operation, error) {
	mine := map[uint]bool{}
	for _, id := range villageIDs {
		mine[id] = true
	}
	var out []game.Operation
	for _, op := range m.operations {
		if op.Pending() && mine[op.SourceVillageID] {
			out = append(out, *op)
		}
	}
	return out, nil
}

func (m *memRepo) CreateBattleReport(r *game.BattleReport) error {
	r.ID = uint(len(m.battles) + 1)
	m.battles = append(m.battles, *r)
	return nil
}

func (m *memRepo) GetBattleReportByID(id uint) (*game.BattleReport, error) {
	for i := range m.battles {
		if m.battles[i].ID == id {
			return &m.battles[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) GetBattleReportByOperationID(operationID uint) (*game.BattleReport, error) {
	for i := range m.battles {
		if m.battles[i].OperationID == operationID {
			return &m.battles[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) AddReport(userID uint, kind game.ReportKind, title, payload string, operationID uint) error {
	m.reports = append(m.reports, game.Report{
		Model:       gorm.Model{ID: uint(len(m.reports) + 1)},
		UserID:      userID,
		Kind:        kind,
		Title:       title,
		Payload:     payload,
		OperationID: operationID,
	})
	return nil
}

func (m *memRepo) GetReportByID(id uint) (*game.Report, error) {
	for i := range m.reports {
		if m.reports[i].ID == id {
			return &m.reports[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memRepo) GetReportsByUser(userID uint, limit int) ([]game.Report, error) {
	var out []game.Report
	for i := len(m.reports) - 1; i >= 0 && len(out) < limit; i-- {
		if m.reports[i].UserID == userID {
			out = append(out, m.reports[i])
		}
	}
	return out, nil
}

func (m *memRepo) reportsFor(userID uint) []game.Report {
	var out []game.Report
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// scriptedRng replays fixed values so combat outcomes are exact.
type scriptedRng struct {
	floats []float64
	ints   []int
	fi, ii int
}

func (r *scriptedRng) Float64() float64 {
	if r.fi >= len(r.floats) {
		return 0.5
	}
	v := r.floats[r.fi]
	r.fi++
	return v
}

func (r *scriptedRng) Intn(n int) int {
	if r.ii >= len(r.ints) {
		return 0
	}
	v := r.ints[r.ii] % n
	r.ii++
	return v
}
