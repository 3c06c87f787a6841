package service

import (
	"errors"

	"gorm.io/gorm"

	"github.com/goleaf/tribal-clone-sub002/internal/game"
)

// VillageDetail is the owner's full view of one village.
type VillageDetail struct {
	Village   game.Village   `json:"village"`
	Garrison  map[string]int `json:"garrison"`
	Buildings map[string]int `json:"buildings"`
	Research  map[string]int `json:"research"`
}

// ListVillages returns the user's villages.
func (s *Service) ListVillages(userID uint) ([]game.Village, error) {
	return s.repo.GetVillagesByUserID(userID)
}

// GetVillageDetail returns a village with its garrison, buildings and
// research. Only the owner may see it.
func (s *Service) GetVillageDetail(villageID, userID uint) (*VillageDetail, error) {
	v, err := s.repo.GetVillageByID(villageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVillageNotFound
		}
		return nil, err
	}
	if v.UserID != userID {
		return nil, ErrNotYourVillage
	}

	idx, err := loadUnitIndex(s.repo)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.GetGarrison(villageID)
	if err != nil {
		return nil, err
	}
	garrison := make(map[string]int, len(rows))
	for _, st := range rows {
		garrison[idx.unit(st.UnitTypeID).InternalName] = st.Count
	}

	buildings, err := s.repo.GetAllBuildingLevels(villageID)
	if err != nil {
		return nil, err
	}
	research, err := s.repo.GetAllResearchLevels(villageID)
	if err != nil {
		return nil, err
	}
	return &VillageDetail{Village: *v, Garrison: garrison, Buildings: buildings, Research: research}, nil
}
