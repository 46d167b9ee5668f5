// Package alloc assigns plants to cells of raised-bed grids.
//
// # Overview
//
// The allocation engine takes a [garden.Garden] and a list of
// [garden.PlantType] values and returns a new garden in which every selected
// plant occupies one contiguous rectangular cluster sized to its share of the
// available space. The input garden is never modified.
//
// The engine is built from small pure pieces that can be used on their own:
//
//   - [RankShapes] enumerates rectangular footprints near a target size,
//     closest size first, squarest first among equals.
//   - [Place] finds the first row-major anchor where a ranked shape fits.
//   - [LightScore] is the lookup table matching plant light preference to
//     bed light level.
//   - [FillGaps] lets empty cells join their most common neighbour.
//
// [Planner.Plan] drives them: it sizes targets, orders plants, ranks beds and
// places each plant, falling back to smaller clusters and then to other beds.
//
// # Policy
//
// Behavioural differences between the simple and the category-aware
// planners are captured by a single [Policy] value rather than two engines:
//
//	p := alloc.NewPlanner(alloc.RichPolicy())
//	plan, err := p.Plan(g, plants, alloc.Options{PrioritizeLight: true})
//
// [SimplePolicy] uses two light tiers, ignores bed categories and scatters
// plants that cannot form a cluster. [RichPolicy] uses three light tiers,
// honours allowed categories and lets herbs occupy a single cell.
//
// # Outcomes
//
// Plants that cannot be placed are listed in [Plan.Unplaced]; they never
// abort the plan. When the requested cells exceed the empty space every
// target is scaled down by the same ratio before placement, recorded in
// [Plan.Scaled].
//
// # Determinism
//
// Identical inputs produce identical grids. Every ordering is explicit:
// shapes by enumeration order, anchors row-major, plants by target then
// input order, beds by score, empty cells and index.
package alloc
