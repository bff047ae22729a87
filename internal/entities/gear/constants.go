package gear

// Slot identifies one of the nine equipment positions on a build.
// The two ring slots share a category and are interchangeable for
// legality and deduplication purposes.
type Slot int

// Equipment slots, in canonical order.
const (
	SlotHelmet Slot = iota
	SlotChestplate
	SlotLeggings
	SlotBoots
	SlotRing1
	SlotRing2
	SlotBracelet
	SlotNecklace
	SlotWeapon
)

// NumSlots is the number of equipment slots on a build.
const NumSlots = 9

// AllSlots lists every slot in canonical order.
var AllSlots = [NumSlots]Slot{
	SlotHelmet, SlotChestplate, SlotLeggings, SlotBoots,
	SlotRing1, SlotRing2, SlotBracelet, SlotNecklace, SlotWeapon,
}

var slotNames = [NumSlots]string{
	"helmet", "chestplate", "leggings", "boots",
	"ring1", "ring2", "bracelet", "necklace", "weapon",
}

// String returns the lowercase slot name.
func (s Slot) String() string {
	if s < 0 || int(s) >= NumSlots {
		return "unknown"
	}
	return slotNames[s]
}

// Category returns the item category the slot accepts.
func (s Slot) Category() Category {
	switch s {
	case SlotHelmet:
		return CategoryHelmet
	case SlotChestplate:
		return CategoryChestplate
	case SlotLeggings:
		return CategoryLeggings
	case SlotBoots:
		return CategoryBoots
	case SlotRing1, SlotRing2:
		return CategoryRing
	case SlotBracelet:
		return CategoryBracelet
	case SlotNecklace:
		return CategoryNecklace
	case SlotWeapon:
		return CategoryWeapon
	default:
		return ""
	}
}

// Category identifies the kind of item a slot accepts.
type Category string

// Item categories.
const (
	CategoryHelmet     Category = "helmet"
	CategoryChestplate Category = "chestplate"
	CategoryLeggings   Category = "leggings"
	CategoryBoots      Category = "boots"
	CategoryRing       Category = "ring"
	CategoryBracelet   Category = "bracelet"
	CategoryNecklace   Category = "necklace"
	CategoryWeapon     Category = "weapon"
)

// HasPowderSlots reports whether items of the category carry powder slots.
// Accessories never do, so a minimum-powder-slot filter must not apply to them.
func (c Category) HasPowderSlots() bool {
	switch c {
	case CategoryHelmet, CategoryChestplate, CategoryLeggings, CategoryBoots, CategoryWeapon:
		return true
	default:
		return false
	}
}

// Tier is an item rarity tier.
type Tier string

// Item tiers.
const (
	TierCommon    Tier = "common"
	TierUnique    Tier = "unique"
	TierRare      Tier = "rare"
	TierLegendary Tier = "legendary"
	TierFabled    Tier = "fabled"
	TierMythic    Tier = "mythic"
	TierSet       Tier = "set"
)

// AttackSpeed is a discrete weapon speed tier. Final build attack speed is
// the weapon's base tier shifted by summed attack-tier bonuses and clamped
// to the valid range.
type AttackSpeed int

// Attack speed tiers, slowest to fastest.
const (
	SpeedSuperSlow AttackSpeed = iota
	SpeedVerySlow
	SpeedSlow
	SpeedNormal
	SpeedFast
	SpeedVeryFast
	SpeedSuperFast
)

// NumAttackSpeeds is the number of attack speed tiers.
const NumAttackSpeeds = 7

var speedNames = [NumAttackSpeeds]string{
	"super_slow", "very_slow", "slow", "normal", "fast", "very_fast", "super_fast",
}

// String returns the lowercase tier name.
func (a AttackSpeed) String() string {
	if a < 0 || int(a) >= NumAttackSpeeds {
		return "unknown"
	}
	return speedNames[a]
}

// ClampSpeed clamps a raw tier sum into the valid attack speed range.
func ClampSpeed(tier int) AttackSpeed {
	if tier < 0 {
		return SpeedSuperSlow
	}
	if tier >= NumAttackSpeeds {
		return SpeedSuperFast
	}
	return AttackSpeed(tier)
}

// Skill identifies one of the five skill-point tracks.
type Skill int

// Skills, in canonical order.
const (
	SkillStrength Skill = iota
	SkillDexterity
	SkillIntelligence
	SkillDefense
	SkillAgility
)

// NumSkills is the number of skill tracks.
const NumSkills = 5

var skillNames = [NumSkills]string{"str", "dex", "int", "def", "agi"}

// String returns the short skill name.
func (s Skill) String() string {
	if s < 0 || int(s) >= NumSkills {
		return "unknown"
	}
	return skillNames[s]
}

// SkillCap is the maximum number of base points assignable to one skill.
// Item bonuses can push the effective value past the cap; requirements above
// it are only satisfiable with bonus support from other equipped items.
const SkillCap = 100

// IdentAttackTier is the identification key carrying an item's contribution
// to the final attack speed tier.
const IdentAttackTier = "atkTier"
