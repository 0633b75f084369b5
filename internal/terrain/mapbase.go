// Package terrain holds the per-tile barrier mask for the currently loaded
// zone and the obstacle queries every manager consults before moving a
// character, throwing magic, or placing an object. It is adapted from the
// teacher's internal/data/mapdata.go (LoadMapData/loadTileFile row-major
// CSV loader, SetImpassable dynamic-block overlay), collapsed from the
// teacher's four-direction passability bits onto the engine's single-byte
// OBSTACLE|TRANS|CAN_OVER mask.
package terrain

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ninesuns/jianghu/internal/geom"
)

// Barrier bit flags, one byte per tile.
const (
	Obstacle byte = 0x80
	Trans    byte = 0x40
	CanOver  byte = 0x20
)

// MapInfo is the YAML-loaded metadata for one zone.
type MapInfo struct {
	ZoneFile string `yaml:"zone_file"`
	Name     string `yaml:"name"`
	Cols     int    `yaml:"cols"`
	Rows     int    `yaml:"rows"`
}

// MapBase holds one zone's authored barrier array. Transient occupancy
// (which tile an NPC or object currently stands on) is tracked by the
// owning manager's own spatial index, never folded into these bits —
// this array holds only the content the zone was authored with.
type MapBase struct {
	info    MapInfo
	barrier []byte // len == cols*rows, row-major by X then Y (x + y*cols)
}

// NewMapBase constructs an empty MapBase where every tile is impassable —
// the fail-safe default described in §4.2: an unset map treats every
// position as an obstacle.
func NewMapBase(info MapInfo) *MapBase {
	mb := &MapBase{
		info:    info,
		barrier: make([]byte, info.Cols*info.Rows),
	}
	for i := range mb.barrier {
		mb.barrier[i] = Obstacle
	}
	return mb
}

// Info returns the zone metadata.
func (m *MapBase) Info() MapInfo { return m.info }

// inViewRange reports whether (x,y) is inside [0,cols) x [1,rows-1) — the
// first and last rows/cols are excluded per §4.2.
func (m *MapBase) inViewRange(x, y int) bool {
	return x >= 0 && x < m.info.Cols && y >= 1 && y < m.info.Rows-1
}

func (m *MapBase) at(x, y int) byte {
	if !m.inViewRange(x, y) {
		return Obstacle
	}
	return m.barrier[x+y*m.info.Cols]
}

// IsObstacle returns whether (x,y) is outside view range or its barrier
// byte has the OBSTACLE bit set.
func (m *MapBase) IsObstacle(x, y int) bool {
	if !m.inViewRange(x, y) {
		return true
	}
	return m.at(x, y)&Obstacle != 0
}

// IsCharacterObstacle is the walking-obstacle query: blocked by OBSTACLE or
// TRANS.
func (m *MapBase) IsCharacterObstacle(x, y int) bool {
	if !m.inViewRange(x, y) {
		return true
	}
	v := m.at(x, y)
	return v&(Obstacle|Trans) != 0
}

// IsCharacterJumpObstacle is the jump-obstacle query: blocked by OBSTACLE
// unless CAN_OVER is also set.
func (m *MapBase) IsCharacterJumpObstacle(x, y int) bool {
	if !m.inViewRange(x, y) {
		return true
	}
	v := m.at(x, y)
	return v&Obstacle != 0 && v&CanOver == 0
}

// IsMagicObstacle is the magic-obstacle query: blocked by OBSTACLE unless
// TRANS is also set (TRANS tiles let projectiles pass over low barriers).
func (m *MapBase) IsMagicObstacle(x, y int) bool {
	if !m.inViewRange(x, y) {
		return true
	}
	v := m.at(x, y)
	return v&Obstacle != 0 && v&Trans == 0
}

// SetStatic sets the authored barrier byte directly — used by the loader
// and by tests.
func (m *MapBase) SetStatic(x, y int, mask byte) {
	if !m.inViewRange(x, y) {
		return
	}
	m.barrier[x+y*m.info.Cols] = mask
}

// IsObstacleTile is IsObstacle taking a geom.Tile, for callers that
// already carry geometry types.
func (m *MapBase) IsObstacleTile(t geom.Tile) bool {
	return m.IsObstacle(t.X, t.Y)
}

type mapListFile struct {
	Maps []MapInfo `yaml:"maps"`
}

// LoadMapList reads zone metadata from YAML.
func LoadMapList(yamlPath string) ([]MapInfo, error) {
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		return nil, fmt.Errorf("read map list %s: %w", yamlPath, err)
	}
	var f mapListFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse map list: %w", err)
	}
	return f.Maps, nil
}

// LoadMapBase loads one zone's barrier file: a CSV text file, one row per
// line, one byte value per comma-separated column — the same shape as the
// teacher's per-map tile files, but one barrier byte per tile instead of
// four direction bits.
func LoadMapBase(info MapInfo, tileDir string) (*MapBase, error) {
	mb := NewMapBase(info)
	path := filepath.Join(tileDir, info.ZoneFile+".txt")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open barrier file %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	y := 0
	for scanner.Scan() && y < info.Rows {
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		x := 0
		for _, tok := range strings.Split(line, ",") {
			if x >= info.Cols {
				break
			}
			val, err := strconv.ParseUint(strings.TrimSpace(tok), 10, 8)
			if err != nil {
				val = uint64(Obstacle)
			}
			mb.SetStatic(x, y, byte(val))
			x++
		}
		y++
	}
	return mb, scanner.Err()
}
