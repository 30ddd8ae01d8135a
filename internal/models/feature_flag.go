package models

import "strings"

// FeatureFlag gates a feature by global switch, explicit allow-list and
// percentage rollout.
type FeatureFlag struct {
	Base
	Key               string `gorm:"uniqueIndex;not null" json:"key"`
	Description       string `json:"description"`
	Enabled           bool   `gorm:"not null;default:false" json:"enabled"`
	RolloutPercentage int    `gorm:"not null;default:0" json:"rolloutPercentage"`
	AllowedUserIDs    string `gorm:"type:text" json:"-"`
}

// AllowList returns the ids in AllowedUserIDs.
func (f *FeatureFlag) AllowList() []string {
	if f.AllowedUserIDs == "" {
		return nil
	}
	var ids []string
	for _, id := range strings.Split(f.AllowedUserIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// SetAllowList stores ids as a comma separated list.
func (f *FeatureFlag) SetAllowList(ids []string) {
	f.AllowedUserIDs = strings.Join(ids, ",")
}
