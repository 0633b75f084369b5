package magic

import (
	"math/rand"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/geom"
)

// msPerFrame is the length of one frame at 60 FPS. Nothing in this
// package reads it: a Waiting sprite's DelayMs counts down by tickMs
// (50ms) per Update.
const msPerFrame = 1000.0 / 60.0

// magicDelayMs is the stagger between successive waves in a formation
// (LineMove launches, RegionBased row waves) — named directly after the
// spec's own term for it in §4.5.
const magicDelayMs = 60

// Cast spawns one or more Sprites for def/level according to its MoveKind
// (spec §4.5) and returns their entity IDs. origin/destination are pixel
// positions; facing is used when origin==destination (a cast with no
// explicit aim point, e.g. death/life-low casts that fire "at current
// facing").
func (m *Manager) Cast(owner ecs.EntityID, ownerAlign assets.Relation, def *assets.MagicDef, level int, origin, destination geom.Pixel, facing geom.Direction8, rng *rand.Rand) []ecs.EntityID {
	originF := geom.PixelFOf(origin)
	targetDir32 := geom.Dir8To32(facing)
	if origin != destination {
		targetDir32 = geom.Dir32Between(originF, geom.PixelFOf(destination))
	}

	var spawned []ecs.EntityID
	spawn := func(s *Sprite) {
		spawned = append(spawned, m.spawn(s))
	}

	base := func(pos geom.PixelF, dir32 geom.Direction32, delayMs int, static bool) *Sprite {
		return &Sprite{
			OwnerID:   owner,
			Align:     ownerAlign,
			Def:       def,
			Level:     level,
			Pos:       pos,
			Dir32:     dir32,
			Phase:     PhaseWaiting,
			DelayMs:   delayMs,
			LifeFrame: def.LifeFrame,
			Static:    static,
		}
	}

	moving := func(s *Sprite, speed float64) *Sprite {
		dx, dy := geom.Dir32Vector(s.Dir32)
		s.VelX, s.VelY = dx*speed, dy*speed
		return s
	}

	speed := def.Speed

	switch def.MoveKind {
	case 0: // NoMove: one sprite, vanishes immediately.
		s := base(originF, targetDir32, 0, false)
		s.Phase = PhaseVanish
		spawn(s)

	case 1: // FixedPosition: one static sprite at destination, zero velocity.
		s := base(geom.PixelFOf(destination), targetDir32, 0, true)
		spawn(s)

	case 2: // SingleMove: one sprite moving targetDir.
		spawn(moving(base(originF, targetDir32, 0, false), speed))

	case 3: // LineMove: min(level,10) sprites staggered 60ms along targetDir.
		n := level
		if n > 10 {
			n = 10
		}
		if n < 1 {
			n = 1
		}
		for i := 0; i < n; i++ {
			spawn(moving(base(originF, targetDir32, i*magicDelayMs, false), speed))
		}

	case 4: // CircleMove: 32 sprites, one per 32-dir.
		for d := geom.Direction32(0); d < 32; d++ {
			spawn(moving(base(originF, d, 0, false), speed))
		}

	case 5: // HeartMove: symmetric expand-then-contract schedule.
		spawnHeart(spawn, base, moving, originF, targetDir32, speed)

	case 6: // SpiralMove: 32 sprites, consecutive 32-dirs, delayed i*30ms.
		for i := 0; i < 32; i++ {
			d := geom.Direction32((int(targetDir32) + i) % 32)
			spawn(moving(base(originF, d, i*30, false), speed))
		}

	case 7: // SectorMove: center + count symmetric pairs (2*count+1 sprites), stride 2.
		count := 1 + (level-1)/3
		spawn(moving(base(originF, targetDir32, 0, false), speed))
		for i := 1; i <= count; i++ {
			stride := i * 2
			spawn(moving(base(originF, targetDir32+geom.Direction32(stride), 0, false), speed))
			spawn(moving(base(originF, targetDir32-geom.Direction32(stride), 0, false), speed))
		}

	case 8: // RandomSector: 2*count+1 sprites with random offset in [-2,2].
		count := 1 + (level-1)/3
		n := 2*count + 1
		for i := 0; i < n; i++ {
			off := 0
			if rng != nil {
				off = rng.Intn(5) - 2
			}
			spawn(moving(base(originF, targetDir32+geom.Direction32(off), 0, false), speed))
		}

	case 9: // FixedWall: row at destination, perpendicular to facing.
		n := 3 + 2*maxInt(0, level-1)
		perp := targetDir32 + 8 // 8 * (360/32) = 90 degrees
		for i := 0; i < n; i++ {
			off := i - n/2
			pos := offsetAlong(geom.PixelFOf(destination), perp, off)
			s := base(pos, targetDir32, 0, i == n/2) // center sprite is the static wall marker
			spawn(s)
		}

	case 10: // WallMove: same row as FixedWall, but all move along targetDir.
		n := 3 + 2*maxInt(0, level-1)
		perp := targetDir32 + 8
		for i := 0; i < n; i++ {
			off := i - n/2
			pos := offsetAlong(geom.PixelFOf(destination), perp, off)
			spawn(moving(base(pos, targetDir32, 0, false), speed))
		}

	case 11: // RegionBased: field of sprites in def.Region's shape.
		spawnRegion(spawn, base, def, destination, targetDir32)

	case 13, 16, 21: // Follow/Trace variants: origin-attached, re-aimed each tick.
		s := base(originF, targetDir32, 0, false)
		if def.TraceEnemy {
			s.TraceTarget = 0 // resolved by Update's nearest-enemy lookup each tick
		} else {
			s.TraceTarget = owner
		}
		moving(s, speed)
		spawn(s)

	case 15: // SuperMode: cast sprite at origin; targets wait for it to finish.
		m.nextCastGroup++
		group := m.nextCastGroup
		cast := base(originF, targetDir32, 0, true)
		cast.castGroup = group
		castID := m.spawn(cast)
		spawned = append(spawned, castID)
		targetCount := 1 + level
		for i := 0; i < targetCount; i++ {
			s := base(originF, targetDir32, waitUntilCastDone, false)
			s.castGroup = group
			spawn(s)
		}

	case 17: // Throw: flat-line bounded-range projectile (§9 Open Question:
		// implemented as a flat line, not a parabola — see DESIGN.md).
		spawn(moving(base(originF, targetDir32, 0, false), speed))

	case 19: // Kind19: 3+level/2 sprites at polar offsets, staggered i*80ms.
		n := 3 + level/2
		for i := 0; i < n; i++ {
			d := geom.Direction32((int(targetDir32) + i*(32/maxInt(n, 1))) % 32)
			spawn(moving(base(originF, d, i*80, false), speed))
		}

	case 20, 22, 23: // Transport/Summon/TimeStop: animation + side-effect only.
		s := base(originF, targetDir32, 0, false)
		spawn(s)

	case 24: // VMove: center + level pairs at V-offset positions, all moving targetDir.
		spawn(moving(base(originF, targetDir32, 0, false), speed))
		for i := 1; i <= level; i++ {
			leftPos := vOffset(originF, targetDir32, i, true)
			rightPos := vOffset(originF, targetDir32, i, false)
			spawn(moving(base(leftPos, targetDir32, 0, false), speed))
			spawn(moving(base(rightPos, targetDir32, 0, false), speed))
		}

	default:
		// No formation defined for this moveKind in spec §4.5 (12/14/18 are
		// not enumerated): fall back to a single moving sprite rather than
		// silently dropping the cast.
		spawn(moving(base(originF, targetDir32, 0, false), speed))
	}

	return spawned
}

// spawnHeart implements MoveKind 5: a deterministic expand-then-contract
// sequence of symmetric 32-dir pairs around targetDir. Spec §4.5 calls for
// a "time-scheduled expansion+contraction sequence" without giving the
// literal schedule; this implementation launches 16 symmetric pairs with
// delay peaking at the widest offset (slowest to leave) and tapering back
// to dead-ahead (fastest), producing a visual bulge-then-pinch silhouette —
// recorded as an Open Question resolution in DESIGN.md.
func spawnHeart(spawn func(*Sprite), base func(geom.PixelF, geom.Direction32, int, bool) *Sprite, moving func(*Sprite, float64) *Sprite, originF geom.PixelF, targetDir32 geom.Direction32, speed float64) {
	const pairs = 16
	for i := 1; i <= pairs; i++ {
		delay := i * 20
		left := targetDir32 + geom.Direction32(i)
		right := targetDir32 - geom.Direction32(i)
		spawn(moving(base(originF, left, delay, false), speed))
		spawn(moving(base(originF, right, delay, false), speed))
	}
}

// spawnRegion implements MoveKind 11: a field of sprites shaped by
// def.Region, row waves staggered by magicDelayMs.
func spawnRegion(spawn func(*Sprite), base func(geom.PixelF, geom.Direction32, int, bool) *Sprite, def *assets.MagicDef, destination geom.Pixel, targetDir32 geom.Direction32) {
	destF := geom.PixelFOf(destination)
	switch def.Region {
	case assets.RegionSquare:
		rowCount := 3
		for row := 0; row < rowCount; row++ {
			for col := 0; col < rowCount; col++ {
				pos := offsetGrid(destF, col-rowCount/2, row-rowCount/2)
				spawn(base(pos, targetDir32, row*magicDelayMs, false))
			}
		}
	case assets.RegionCross:
		arm := 2
		spawn(base(destF, targetDir32, 0, false))
		for i := 1; i <= arm; i++ {
			spawn(base(offsetGrid(destF, i, 0), targetDir32, i*magicDelayMs, false))
			spawn(base(offsetGrid(destF, -i, 0), targetDir32, i*magicDelayMs, false))
			spawn(base(offsetGrid(destF, 0, i), targetDir32, i*magicDelayMs, false))
			spawn(base(offsetGrid(destF, 0, -i), targetDir32, i*magicDelayMs, false))
		}
	case assets.RegionRectangle:
		offsets := rectangleOffsets[dir8Index(targetDir32)]
		for row, rowOffsets := range offsets {
			for _, colOffset := range rowOffsets {
				pos := offsetGrid(destF, colOffset, row)
				spawn(base(pos, targetDir32, row*magicDelayMs, false))
			}
		}
	case assets.RegionIsoTriangle:
		depth := 3
		for row := 0; row < depth; row++ {
			for col := -row; col <= row; col++ {
				pos := offsetGrid(destF, col, row)
				spawn(base(pos, targetDir32, row*magicDelayMs, false))
			}
		}
	case assets.RegionV:
		depth := 3
		for row := 0; row < depth; row++ {
			spawn(base(vOffset(destF, targetDir32, row, true), targetDir32, row*magicDelayMs, false))
			spawn(base(vOffset(destF, targetDir32, row, false), targetDir32, row*magicDelayMs, false))
		}
	default:
		spawn(base(destF, targetDir32, 0, false))
	}
}

// rectangleOffsets is the 8-entry table (keyed by targetDir8) of per-row
// column offsets for a multi-row wall; columns widen outward row by row.
// Only the column offsets vary with the facing: spawnRegion places row r
// r grid steps down the screen (+Y) from the destination for every
// direction, so the rows do not turn with targetDir8.
var rectangleOffsets = [8][3][]int{
	{{0}, {-1, 0, 1}, {-2, -1, 0, 1, 2}}, // S
	{{0}, {-1, 0}, {-2, -1, 0}},          // SW
	{{0}, {0, 1}, {0, 1, 2}},             // W
	{{0}, {-1, 0}, {-2, -1, 0}},          // NW
	{{0}, {-1, 0, 1}, {-2, -1, 0, 1, 2}}, // N
	{{0}, {0, 1}, {0, 1, 2}},             // NE
	{{0}, {-1, 0}, {-2, -1, 0}},          // E
	{{0}, {0, 1}, {0, 1, 2}},             // SE
}

func dir8Index(d32 geom.Direction32) int {
	return int(geom.Dir32To8(d32))
}

// offsetGrid nudges a pixel position by (col, row) tile-grid steps along
// the engine's pixel axes — a plain axis-aligned grid step, distinct from
// offsetAlong's direction-relative step.
func offsetGrid(p geom.PixelF, col, row int) geom.PixelF {
	const step = 32.0
	return geom.PixelF{X: p.X + float64(col)*step, Y: p.Y + float64(row)*step}
}

// offsetAlong nudges a pixel position n 24px steps along dir32; wall rows
// pass the perpendicular of their facing to lay the row out sideways.
func offsetAlong(p geom.PixelF, dir32 geom.Direction32, n int) geom.PixelF {
	dx, dy := geom.Dir32Vector(dir32)
	const step = 24.0
	return geom.PixelF{X: p.X + dx*step*float64(n), Y: p.Y + dy*step*float64(n)}
}

// vOffset places the i-th pair position of a V formation (MoveKind 24, and
// RegionV), i 20px steps out along one arm: the left arm rotated +45
// degrees (4 32-dir units) from targetDir, the right arm at -45.
func vOffset(origin geom.PixelF, targetDir32 geom.Direction32, i int, left bool) geom.PixelF {
	armDir := targetDir32 + 4
	if !left {
		armDir = targetDir32 - 4
	}
	dx, dy := geom.Dir32Vector(armDir)
	const step = 20.0
	return geom.PixelF{X: origin.X + dx*step*float64(i), Y: origin.Y + dy*step*float64(i)}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
