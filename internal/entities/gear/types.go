// Package gear defines the equipment entities the optimizer searches over:
// slots, items, set metadata, and slot assignments.
package gear

// Item is an immutable catalog entry. The catalog is loaded once per run and
// shared read-only across the whole search; nothing mutates an Item after
// construction.
type Item struct {
	ID          string             `json:"id"`
	Name        string             `json:"name,omitempty"`
	Category    Category           `json:"category"`
	Tier        Tier               `json:"tier"`
	Level       int                `json:"level"`
	ClassReq    string             `json:"class_req,omitempty"`
	PowderSlots int                `json:"powder_slots,omitempty"`
	MajorIDs    []string           `json:"major_ids,omitempty"`
	SetID       string             `json:"set_id,omitempty"`
	AttackSpeed AttackSpeed        `json:"attack_speed,omitempty"` // weapons only
	SkillReqs   [NumSkills]int     `json:"skill_reqs,omitempty"`
	SkillBonus  [NumSkills]int     `json:"skill_bonus,omitempty"`
	Idents      map[string]float64 `json:"idents,omitempty"`
}

// Ident returns the item's value for an identification key, zero if absent.
func (it *Item) Ident(key string) float64 {
	return it.Idents[key]
}

// AttackTier returns the item's contribution to the final attack speed tier.
func (it *Item) AttackTier() int {
	return int(it.Ident(IdentAttackTier))
}

// HasMajorID reports whether the item carries the given major ability tag.
func (it *Item) HasMajorID(id string) bool {
	for _, m := range it.MajorIDs {
		if m == id {
			return true
		}
	}
	return false
}

// TotalSkillReq returns the sum of the item's skill requirements.
func (it *Item) TotalSkillReq() int {
	total := 0
	for _, r := range it.SkillReqs {
		total += r
	}
	return total
}

// TotalSkillBonus returns the sum of the item's skill bonuses.
func (it *Item) TotalSkillBonus() int {
	total := 0
	for _, b := range it.SkillBonus {
		total += b
	}
	return total
}

// SetInfo describes set-combination legality for one item set. A build
// wearing a piece count listed in IllegalCounts violates game rules.
type SetInfo struct {
	ID            string `json:"id"`
	IllegalCounts []int  `json:"illegal_counts,omitempty"`
}

// CountIllegal reports whether wearing exactly n pieces of the set is illegal.
func (s *SetInfo) CountIllegal(n int) bool {
	for _, c := range s.IllegalCounts {
		if c == n {
			return true
		}
	}
	return false
}

// SlotAssignment maps each slot to an item id, "" meaning empty. It is a
// fixed-size array on purpose: assigning it copies the whole value, which is
// exactly the fresh-copy-per-expansion semantics sibling beam nodes require.
type SlotAssignment [NumSlots]string

// Get returns the item id assigned to a slot, "" if empty.
func (a SlotAssignment) Get(s Slot) string {
	return a[s]
}

// Filled returns the number of non-empty slots.
func (a SlotAssignment) Filled() int {
	n := 0
	for _, id := range a {
		if id != "" {
			n++
		}
	}
	return n
}

// Complete reports whether every slot is assigned.
func (a SlotAssignment) Complete() bool {
	return a.Filled() == NumSlots
}

// Contains reports whether any slot holds the given item id.
func (a SlotAssignment) Contains(id string) bool {
	for _, v := range a {
		if v == id {
			return true
		}
	}
	return false
}
