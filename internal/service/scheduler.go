package service

import (
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/goleaf/tribal-clone-sub002/internal/constants"
	"github.com/goleaf/tribal-clone-sub002/internal/dedupe"
	"github.com/goleaf/tribal-clone-sub002/internal/game"
	"github.com/goleaf/tribal-clone-sub002/internal/logging"
)

// ProcessDueSummary reports one pull-based resolution sweep. Messages
// are renderable one-liners for the client's event feed.
type ProcessDueSummary struct {
	Due      int      `json:"due"`
	Resolved int      `json:"resolved"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Messages []string `json:"messages,omitempty"`
}

// ProcessDue resolves every operation touching the user's villages
// whose arrival time has passed, oldest first. Resolution is lazy:
// nothing ticks in the background, state catches up when someone looks.
// Concurrent sweeps for the same user collapse into one run.
func (s *Service) ProcessDue(userID uint) (*ProcessDueSummary, error) {
	v, err, _ := dedupe.ProcessDueGroup.Do(fmt.Sprintf("user-%d", userID), func() (any, error) {
		return s.processDue(userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProcessDueSummary), nil
}

func (s *Service) processDue(userID uint) (*ProcessDueSummary, error) {
	villages, err := s.repo.GetVillagesByUserID(userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(villages))
	mine := make(map[uint]bool, len(villages))
	for _, v := range villages {
		ids = append(ids, v.ID)
		mine[v.ID] = true
	}
	if len(ids) == 0 {
		return &ProcessDueSummary{}, nil
	}

	due, err := s.repo.FindDueOperations(ids, s.now())
	if err != nil {
		return nil, err
	}

	summary := &ProcessDueSummary{Due: len(due)}
	for _, op := range due {
		switch err := s.ResolveOperation(op.ID); {
		case err == nil:
			summary.Resolved++
			if msg := s.sweepMessage(&op, mine); msg != "" {
				summary.Messages = append(summary.Messages, msg)
			}
		case errors.Is(err, ErrAlreadyResolved):
			// Another sweep got there first.
			summary.Skipped++
		default:
			// One broken operation must not wedge the queue. Detail
			// stays in the log, participants get a neutral note.
			summary.Failed++
			logging.Warn("operation resolution failed", err, logging.Fields{
				constants.LogFieldOperationID: op.ID,
				constants.LogFieldKind:        string(op.Kind),
				constants.LogFieldUserID:      userID,
			})
			s.fileFailureReports(&op)
		}
	}
	return summary, nil
}

// sweepMessage renders a one-line outcome for the requesting side from
// the freshly written report. Moves without a report fall back to kind
// and arrival time.
func (s *Service) sweepMessage(op *game.Operation, mine map[uint]bool) string {
	arrived := humanize.Time(op.ArrivesAt)
	attackerSide := mine[op.SourceVillageID]
	switch {
	case op.Kind.IsBattle():
		br, err := s.repo.GetBattleReportByOperationID(op.ID)
		if err != nil {
			break
		}
		out, err := game.DecodeBattleOutcome(br.Outcome)
		if err != nil {
			break
		}
		if attackerSide {
			switch {
			case out.Conquered:
				return fmt.Sprintf("your %s conquered the village, arrived %s", op.Kind, arrived)
			case br.AttackerWon:
				return fmt.Sprintf("your %s won, plundered %s resources, arrived %s",
					op.Kind, humanize.Comma(int64(out.Loot.Total())), arrived)
			default:
				return fmt.Sprintf("your %s was repelled, arrived %s", op.Kind, arrived)
			}
		}
		switch {
		case out.Conquered:
			return fmt.Sprintf("your village was conquered, the attack arrived %s", arrived)
		case br.AttackerWon:
			return fmt.Sprintf("your village was overrun, %s resources plundered, the attack arrived %s",
				humanize.Comma(int64(out.Loot.Total())), arrived)
		default:
			return fmt.Sprintf("your village repelled an attack, arrived %s", arrived)
		}
	case op.Kind == game.OperationSpy:
		br, err := s.repo.GetBattleReportByOperationID(op.ID)
		if err != nil {
			break
		}
		out, err := game.DecodeSpyOutcome(br.Outcome)
		if err != nil {
			break
		}
		if attackerSide {
			if out.Success {
				return fmt.Sprintf("your spy mission succeeded, %d of %d scouts returned, arrived %s",
					out.SpiesReturned, out.SpiesSent, arrived)
			}
			return fmt.Sprintf("your spy mission failed, %d scouts lost, arrived %s", out.SpiesLost, arrived)
		}
		// Clean missions stay invisible to the defender.
		if out.SpiesLost > 0 {
			return fmt.Sprintf("enemy spies were caught at your village, arrived %s", arrived)
		}
		return ""
	}
	return fmt.Sprintf("%s resolved, arrived %s", op.Kind, arrived)
}

// fileFailureReports leaves both participants a generic note so a
// resolution crash is visible without leaking internals. Best effort.
func (s *Service) fileFailureReports(op *game.Operation) {
	sides := []struct {
		villageID uint
		kind      game.ReportKind
	}{
		{op.SourceVillageID, game.ReportKindAttack},
		{op.TargetVillageID, game.ReportKindDefense},
	}
	for _, side := range sides {
		v, err := s.repo.GetVillageByID(side.villageID)
		if err != nil || v == nil || v.UserID == 0 {
			continue
		}
		title := fmt.Sprintf("An operation near %s (%d|%d) could not be resolved", v.Name, v.X, v.Y)
		if err := s.repo.AddReport(v.UserID, side.kind, title, "", op.ID); err != nil {
			logging.Warn("failed to file failure report", err, logging.Fields{
				constants.LogFieldOperationID: op.ID,
				constants.LogFieldVillageID:   side.villageID,
			})
		}
	}
}
