package npcmgr

import (
	"time"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/combat"
	"github.com/ninesuns/jianghu/internal/core/ecs"
	"github.com/ninesuns/jianghu/internal/core/event"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/npcai"
	"github.com/ninesuns/jianghu/internal/terrain"
)

// SetMapBase wires the loaded zone's barrier data, consulted read-only for
// terrain obstacle checks during movement.
func (m *Manager) SetMapBase(mb *terrain.MapBase) { m.mapBase = mb }

// Update runs the per-tick NPC pass (spec §4.4/§4.7, system.PhaseNpc):
// death/respawn bookkeeping first, then AI decisions for everything still
// alive, finally decaying the recent-death log used by friend-death
// reactions.
func (m *Manager) Update(dt time.Duration) {
	for _, c := range m.npcs {
		if c.Npc == nil {
			continue
		}
		if c.IsDead() {
			m.updateDeadNpc(c)
			continue
		}
		if c.Npc.LoadingSprites {
			continue
		}
		m.updateAttackCooldown(c)
		if m.aiDisabled || c.Npc.AIDisabled {
			continue
		}
		m.updateLiveNpc(c)
	}
	m.decayDeathLog()
}

func (m *Manager) updateAttackCooldown(c *character.Character) {
	if c.Npc.AttackCooldown > 0 {
		c.Npc.AttackCooldown--
	}
}

func (m *Manager) updateLiveNpc(c *character.Character) {
	def, ok := m.defOf(c)
	if !ok {
		return
	}
	decision := npcai.Decide(c, def, m, m.ai)
	switch decision.Action {
	case npcai.ActionIdle:
		return
	case npcai.ActionStandFixedPath:
		m.followFixedPath(c)
	case npcai.ActionWander:
		m.wander(c, def)
	case npcai.ActionCastMagic:
		m.castSelfTriggered(c, decision)
		if decision.RetreatTo != (geom.Tile{}) {
			m.stepToward(c, decision.RetreatTo)
		}
	case npcai.ActionReposition:
		m.stepToward(c, decision.RetreatTo)
	case npcai.ActionChaseAndAct:
		m.runCommands(c, def, decision)
	}
}

// castSelfTriggered fires a life-low cast (the one Decision case that
// carries its own MagicKey rather than going through a Lua command list).
func (m *Manager) castSelfTriggered(c *character.Character, d npcai.Decision) {
	dir := geom.Dir8To32(c.Dir8)
	m.Cast(c.ID, d.MagicKey, dir, c.Pixel, c.Pixel)
}

// runCommands executes the AICommand list Decide/Lua produced for a
// chase-and-act decision: attack, cast, move_toward, wander, retreat, or
// lose_aggro (spec §4.4's chase/attack dispatch).
func (m *Manager) runCommands(c *character.Character, def *assets.CharacterDef, d npcai.Decision) {
	target, ok := m.Character(d.FollowTarget)
	if !ok || target.IsDead() {
		c.Npc.FollowTarget = 0
		return
	}
	c.Dir8 = geom.HeadingTo(c.Tile, target.Tile)

	for _, cmd := range d.Commands {
		switch cmd.Type {
		case "attack":
			m.meleeAttack(c, def, target)
		case "cast":
			if key, ok := magicCacheKey(c.Npc.MagicCache, cmd.SkillID); ok {
				dest := target.Tile
				c.Npc.DestinationAttackTile = &dest
				m.Cast(c.ID, key, geom.Dir8To32(c.Dir8), c.Pixel, target.Pixel)
				c.Npc.DestinationAttackTile = nil
			}
		case "move_toward":
			m.stepToward(c, target.Tile)
		case "wander":
			m.wander(c, def)
		case "retreat":
			away := geom.Neighbor(c.Tile, oppositeOf(geom.HeadingTo(c.Tile, target.Tile)))
			m.stepToward(c, away)
		case "lose_aggro":
			c.Npc.FollowTarget = 0
			clearHateList(c.Npc)
		}
	}
}

func oppositeOf(d geom.Direction8) geom.Direction8 {
	return geom.Direction8((int(d) + 4) % 8)
}

// magicCacheKey resolves a "cast" AICommand's SkillID into this NPC's
// resolved magic-file-name cache (spec §3's "magic cache"), clamping an
// out-of-range index to the first entry rather than casting nothing.
func magicCacheKey(cache []string, skillID int) (string, bool) {
	if len(cache) == 0 {
		return "", false
	}
	if skillID < 0 || skillID >= len(cache) {
		return cache[0], true
	}
	return cache[skillID], true
}

// meleeAttack resolves one melee swing through the shared combat pipeline,
// wiring hate-table aggro and the death cascade on the result.
func (m *Manager) meleeAttack(attacker *character.Character, def *assets.CharacterDef, target *character.Character) {
	if attacker.Npc.AttackCooldown > 0 {
		return
	}
	attacker.Npc.AttackCooldown = attackCooldownTicks(def)

	dmg := combat.MeleeDamage(attacker, target, m.scr)
	hit := combat.Hit{
		Attacker:            attacker,
		BaseDamage:          dmg.Damage,
		AttackerPenetration: 0,
	}
	var targetRetaliation combat.RetaliationDef
	if tdef, ok := m.defOf(target); ok {
		targetRetaliation = retaliationDefOf(tdef)
		hit.RetaliationDirection = npcai.MagicDirection(tdef.MagicDirectionWhenBeAttacked)
	}

	result := combat.TakeDamage(target, hit, targetRetaliation, m.scr, func(t, a *character.Character, dealt int) {
		if t.Npc != nil && a != nil {
			addHate(t.Npc, a.ID, dealt)
		}
	})
	if !result.Applied {
		return
	}
	m.dispatchRetaliation(target.ID, result.Retaliation)
	if result.KilledNow {
		if tdef, ok := m.defOf(target); ok {
			m.invokeDeath(target, attacker, tdef)
		}
	}
}

// HandleDeath runs the death cascade for a character killed by something
// outside this manager's own melee path — a magic sprite collision
// (worldtick.Context's magic.World.ApplyHit). It is a no-op for characters
// with no NpcData (nothing to cascade) or whose death was already invoked,
// the same guard invokeDeath's callee (npcai.DeathCascade) enforces.
func (m *Manager) HandleDeath(target, killer *character.Character) {
	if target.Npc == nil || target.Npc.IsDeathInvoked {
		return
	}
	def, ok := m.defOf(target)
	if !ok {
		return
	}
	m.invokeDeath(target, killer, def)
}

// attackCooldownTicks returns the melee swing interval: a fixed 10 ticks
// (500ms at the nominal 20Hz tick) for every fighter. CharacterDef has no
// attack-speed field and def is not read; the fixed interval keeps
// rapid-fire melee from trivializing fights.
func attackCooldownTicks(def *assets.CharacterDef) int {
	return 10
}

// invokeDeath runs the one-shot death cascade and arms the two-phase
// delete/respawn timers.
func (m *Manager) invokeDeath(npc, killer *character.Character, def *assets.CharacterDef) {
	npcai.DeathCascade(npc, def, killer, m, func(dead *character.Character) {
		m.addDead(dead, def)
	}, func(path string) {
		m.scr.QueueScript(path)
	})

	npc.State = character.StateDeath
	npc.Npc.DeleteTimer = def.DeleteTicks
	if npc.Npc.DeleteTimer <= 0 {
		npc.Npc.DeleteTimer = 1
	}

	var killerEntity ecs.EntityID
	if killer != nil {
		killerEntity = killer.ID
	}
	event.Emit(m.bus, event.CharacterDied{Entity: npc.ID, Killer: killerEntity, ZoneFile: m.zoneFile})

	if m.bodies != nil {
		m.bodies.SpawnBody(npc.Tile, def.Key)
	}
}

// addDead appends npc to the recent-death log, evicting anything already
// stale. Called from the death cascade's addDead callback.
func (m *Manager) addDead(npc *character.Character, def *assets.CharacterDef) {
	m.deaths = append(m.deaths, DeathInfo{
		Entity:          npc.ID,
		Tile:            npc.Tile,
		Relation:        m.relationOf(npc),
		FramesRemaining: deathInfoFrames,
	})
	clearHateList(npc.Npc)
}

func (m *Manager) decayDeathLog() {
	n := 0
	for _, d := range m.deaths {
		d.FramesRemaining--
		if d.FramesRemaining > 0 {
			m.deaths[n] = d
			n++
		}
	}
	m.deaths = m.deaths[:n]
}

// updateDeadNpc runs the teacher's internal/system/npc_respawn.go
// two-phase sequence generalized to ecs.EntityID: DeleteTimer counts down
// the death animation, then RespawnTimer counts down the revive delay,
// then a spiral search finds an unoccupied tile near the spawn point.
func (m *Manager) updateDeadNpc(c *character.Character) {
	def, ok := m.defOf(c)
	if !ok {
		return
	}
	if def.IsPartner {
		return // partner NPCs are never deleted or respawned here
	}

	if c.Npc.DeleteTimer > 0 {
		c.Npc.DeleteTimer--
		if c.Npc.DeleteTimer <= 0 {
			m.grid.remove(c.ID, c.Tile)
			c.Npc.RespawnTimer = millisToTicks(def.ReviveMilliseconds)
		}
		return
	}

	if c.Npc.RespawnTimer > 0 {
		c.Npc.RespawnTimer--
		if c.Npc.RespawnTimer <= 0 {
			m.respawn(c, def)
		}
	}
}

func millisToTicks(ms int) int {
	const tickMs = 50 // nominal 20Hz tick (spec §4.10)
	if ms <= 0 {
		return 1
	}
	return ms / tickMs
}

// respawn resets an NPC to full health at its spawn tile, spiral-searching
// radius 1..3 for an unoccupied tile if the spawn point itself is blocked
// (teacher: NpcRespawnSystem.respawnNpc).
func (m *Manager) respawn(c *character.Character, def *assets.CharacterDef) {
	spawn := c.Npc.SpawnTile
	target := spawn
	if m.isOccupied(spawn, c.ID) {
		target = m.spiralSearch(spawn, c.ID)
	}

	c.Stats.Life = c.Stats.LifeMax
	c.Stats.Mana = c.Stats.ManaMax
	c.Tile = target
	c.Pixel = geom.TileToPixel(target)
	c.State = character.StateStand
	c.Visible = true
	c.Npc.IsDeathInvoked = false
	c.Npc.FollowTarget = 0
	clearHateList(c.Npc)

	m.grid.add(c.ID, target)
	event.Emit(m.bus, event.CharacterRespawned{Entity: c.ID})
}

func (m *Manager) isOccupied(t geom.Tile, exclude ecs.EntityID) bool {
	for _, id := range m.grid.nearby(t) {
		if id == exclude {
			continue
		}
		if c, ok := m.npcs[id]; ok && c.Tile == t && !c.IsDead() {
			return true
		}
	}
	return false
}

func (m *Manager) spiralSearch(center geom.Tile, exclude ecs.EntityID) geom.Tile {
	for r := 1; r <= 3; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				t := geom.Tile{X: center.X + dx, Y: center.Y + dy}
				if m.mapBase != nil && m.mapBase.IsCharacterObstacle(t.X, t.Y) {
					continue
				}
				if !m.isOccupied(t, exclude) {
					return t
				}
			}
		}
	}
	return center
}

// stepToward moves c one tile closer to dest, dispatching on the §4.3
// movement style npcai.SelectPathStyle derives from c's CharacterDef. NPC
// movement has no sub-tile interpolation in this core — spec §4.10 leaves
// per-tile walk timing to the sprite/animation layer, not the simulation
// tick.
func (m *Manager) stepToward(c *character.Character, dest geom.Tile) {
	if c.Tile == dest {
		return
	}
	style := character.PathOneStep
	if def, ok := m.defOf(c); ok {
		style = npcai.SelectPathStyle(def, c.Npc != nil && c.Npc.IsLoopWalk)
	}
	c.PathStyle = style

	switch style {
	case character.PathStraightLine:
		m.stepStraight(c, dest)
	case character.PerfectMaxNpcTry, character.PerfectMaxPlayerTry:
		m.stepPlanned(c, dest)
	default:
		m.stepOneStep(c, dest)
	}
}

// stepStraight moves directly toward dest ignoring every obstacle check —
// Flyers bypass the NPC-variant obstacle composition entirely (spec §4.3:
// "Flyer bypasses all of these").
func (m *Manager) stepStraight(c *character.Character, dest geom.Tile) {
	dir := geom.HeadingTo(c.Tile, dest)
	next := geom.Neighbor(c.Tile, dir)
	c.Dir8 = dir
	c.State = character.StateWalk
	m.moveTo(c, next)
}

// stepOneStep is the direct-then-sidestep probe: try the heading straight
// at dest, then one step either side of it, before giving up for the tick.
// Grounded on the teacher's npcMoveToward direct-plus-two-sidestep probing.
func (m *Manager) stepOneStep(c *character.Character, dest geom.Tile) {
	dir := geom.HeadingTo(c.Tile, dest)
	candidates := [3]geom.Direction8{dir, geom.Direction8((int(dir) + 1) % 8), geom.Direction8((int(dir) + 7) % 8)}
	for _, d := range candidates {
		next := geom.Neighbor(c.Tile, d)
		if m.mapBase != nil && m.mapBase.IsCharacterObstacle(next.X, next.Y) {
			continue
		}
		if m.isOccupied(next, c.ID) {
			continue
		}
		c.Dir8 = d
		c.State = character.StateWalk
		m.moveTo(c, next)
		return
	}
}

// stepPlanned takes the direct step when it is unobstructed, and otherwise
// consumes (or, if stale, recomputes) a bounded breadth-first path cached on
// c.Path — the PerfectMaxNpcTry/PerfectMaxPlayerTry styles from spec §4.3.
// The search is capped at maxPathNodes so a single tick never stalls on an
// unreachable destination.
func (m *Manager) stepPlanned(c *character.Character, dest geom.Tile) {
	dir := geom.HeadingTo(c.Tile, dest)
	next := geom.Neighbor(c.Tile, dir)
	blocked := (m.mapBase != nil && m.mapBase.IsCharacterObstacle(next.X, next.Y)) || m.isOccupied(next, c.ID)
	if !blocked {
		c.Dir8 = dir
		c.State = character.StateWalk
		m.moveTo(c, next)
		c.Path = nil
		return
	}

	if len(c.Path) == 0 || c.Path[len(c.Path)-1] != dest {
		c.Path = m.findPath(c.Tile, dest, c.ID)
	}
	if len(c.Path) == 0 {
		return
	}
	step := c.Path[0]
	if m.isOccupied(step, c.ID) {
		c.Path = nil
		return
	}
	c.Dir8 = geom.HeadingTo(c.Tile, step)
	c.State = character.StateWalk
	m.moveTo(c, step)
	c.Path = c.Path[1:]
}

// maxPathNodes bounds the breadth-first search stepPlanned runs so a
// single tick's pathfinding is O(maxPathNodes) regardless of map size.
const maxPathNodes = 200

// findPath runs a bounded breadth-first search from `from` to `to` over
// unobstructed, unoccupied tiles (the destination tile itself is exempt
// from the occupancy check, since chase targets stand on it) and returns
// the step-by-step path excluding `from`. Returns nil if `to` isn't
// reached within maxPathNodes expansions.
func (m *Manager) findPath(from, to geom.Tile, exclude ecs.EntityID) []geom.Tile {
	if from == to {
		return nil
	}
	parent := map[geom.Tile]geom.Tile{from: from}
	queue := []geom.Tile{from}
	reached := false

	for expanded := 0; expanded < maxPathNodes && len(queue) > 0 && !reached; expanded++ {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range geom.Neighbors8(cur) {
			if _, seen := parent[nb]; seen {
				continue
			}
			if nb != to {
				if m.mapBase != nil && m.mapBase.IsCharacterObstacle(nb.X, nb.Y) {
					continue
				}
				if m.isOccupied(nb, exclude) {
					continue
				}
			}
			parent[nb] = cur
			if nb == to {
				reached = true
				break
			}
			queue = append(queue, nb)
		}
	}
	if !reached {
		return nil
	}

	var path []geom.Tile
	for cur := to; cur != from; cur = parent[cur] {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (m *Manager) followFixedPath(c *character.Character) {
	path := c.Npc.FixedPath
	if len(path) == 0 {
		return
	}
	target := path[c.Npc.PathIndex]
	if c.Tile == target {
		c.Npc.PathIndex++
		if c.Npc.PathIndex >= len(path) {
			if c.Npc.IsLoopWalk {
				c.Npc.PathIndex = 0
			} else {
				c.Npc.PathIndex = len(path) - 1
			}
		}
		return
	}
	m.stepToward(c, target)
}

// wander implements the aiType in {1,2} idle behavior: step toward a
// random neighbor tile, picking a new direction every wanderCooldown
// ticks (teacher: npc_ai.go's random-walk branch).
func (m *Manager) wander(c *character.Character, def *assets.CharacterDef) {
	if c.Npc.WanderCooldown > 0 {
		c.Npc.WanderCooldown--
		return
	}
	c.Npc.WanderDir = geom.Direction8(m.rng.Intn(8))
	c.Npc.WanderCooldown = 10 + m.rng.Intn(20)

	next := geom.Neighbor(c.Tile, c.Npc.WanderDir)
	if m.mapBase != nil && m.mapBase.IsCharacterObstacle(next.X, next.Y) {
		return
	}
	if m.isOccupied(next, c.ID) {
		return
	}
	c.Dir8 = c.Npc.WanderDir
	c.State = character.StateWalk
	m.moveTo(c, next)
}
