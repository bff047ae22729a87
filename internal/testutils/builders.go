package testutils

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/KirkDiggler/loadout-api/internal/catalog"
	"github.com/KirkDiggler/loadout-api/internal/entities/gear"
)

// ItemBuilder builds synthetic catalog items for tests.
type ItemBuilder struct {
	item gear.Item
}

// NewItem starts an item builder with sensible defaults: common tier,
// level 1, normal attack speed.
func NewItem(id string, cat gear.Category) *ItemBuilder {
	return &ItemBuilder{item: gear.Item{
		ID:          id,
		Name:        id,
		Category:    cat,
		Tier:        gear.TierCommon,
		Level:       1,
		AttackSpeed: gear.SpeedNormal,
		Idents:      map[string]float64{},
	}}
}

// Tier sets the item tier.
func (b *ItemBuilder) Tier(t gear.Tier) *ItemBuilder {
	b.item.Tier = t
	return b
}

// Level sets the level requirement.
func (b *ItemBuilder) Level(lvl int) *ItemBuilder {
	b.item.Level = lvl
	return b
}

// Class sets the class requirement.
func (b *ItemBuilder) Class(class string) *ItemBuilder {
	b.item.ClassReq = class
	return b
}

// Ident sets one identification value.
func (b *ItemBuilder) Ident(key string, val float64) *ItemBuilder {
	b.item.Idents[key] = val
	return b
}

// AtkTier sets the attack tier modifier identification.
func (b *ItemBuilder) AtkTier(n int) *ItemBuilder {
	b.item.Idents[gear.IdentAttackTier] = float64(n)
	return b
}

// Speed sets the base attack speed (meaningful for weapons).
func (b *ItemBuilder) Speed(s gear.AttackSpeed) *ItemBuilder {
	b.item.AttackSpeed = s
	return b
}

// SkillReq sets a skill point requirement.
func (b *ItemBuilder) SkillReq(s gear.Skill, v int) *ItemBuilder {
	b.item.SkillReqs[s] = v
	return b
}

// SkillBonus sets a skill point bonus.
func (b *ItemBuilder) SkillBonus(s gear.Skill, v int) *ItemBuilder {
	b.item.SkillBonus[s] = v
	return b
}

// MajorID appends a major identification.
func (b *ItemBuilder) MajorID(id string) *ItemBuilder {
	b.item.MajorIDs = append(b.item.MajorIDs, id)
	return b
}

// Set marks the item as part of an item set.
func (b *ItemBuilder) Set(setID string) *ItemBuilder {
	b.item.SetID = setID
	return b
}

// PowderSlots sets the powder slot count.
func (b *ItemBuilder) PowderSlots(n int) *ItemBuilder {
	b.item.PowderSlots = n
	return b
}

// Build returns the constructed item.
func (b *ItemBuilder) Build() gear.Item {
	return b.item
}

// CatalogBuilder accumulates items and sets into a snapshot.
type CatalogBuilder struct {
	items []gear.Item
	sets  []gear.SetInfo
}

// NewCatalog starts an empty catalog builder.
func NewCatalog() *CatalogBuilder {
	return &CatalogBuilder{}
}

// Add appends items to the catalog.
func (b *CatalogBuilder) Add(items ...gear.Item) *CatalogBuilder {
	b.items = append(b.items, items...)
	return b
}

// AddSet appends set metadata to the catalog.
func (b *CatalogBuilder) AddSet(set gear.SetInfo) *CatalogBuilder {
	b.sets = append(b.sets, set)
	return b
}

// Build constructs the snapshot, failing the test on invalid input.
func (b *CatalogBuilder) Build(t *testing.T) *catalog.Snapshot {
	t.Helper()
	snap, err := catalog.New(&catalog.Config{Items: b.items, Sets: b.sets})
	require.NoError(t, err, "failed to build test catalog")
	return snap
}

// BasicCatalog builds a catalog with perCategory items in every category.
// Item ids follow the pattern "<category>-<n>" and carry deterministic
// ident values: "mr" grows with n, "hp" grows ten times as fast, so higher
// numbered items are strictly better under positive weights.
func BasicCatalog(t *testing.T, perCategory int) *catalog.Snapshot {
	t.Helper()
	b := NewCatalog()
	for _, cat := range []gear.Category{
		gear.CategoryHelmet,
		gear.CategoryChestplate,
		gear.CategoryLeggings,
		gear.CategoryBoots,
		gear.CategoryRing,
		gear.CategoryBracelet,
		gear.CategoryNecklace,
		gear.CategoryWeapon,
	} {
		for n := 1; n <= perCategory; n++ {
			b.Add(NewItem(fmt.Sprintf("%s-%d", cat, n), cat).
				Ident("mr", float64(n)).
				Ident("hp", float64(10*n)).
				Build())
		}
	}
	return b.Build(t)
}
