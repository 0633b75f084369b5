// Package assets defines the read-only content registry the core consults
// for character/NPC/object/magic definitions and sprite sheets. It is
// grounded on the teacher's internal/data/npc.go map-table pattern
// (LoadNpcTable/NpcTable.Get), generalized to the definitions this engine's
// core needs and re-typed around CharacterDef/ObjectDef/MagicDef instead of
// Lineage item/skill/shop tables.
package assets

// CharKind tags which behavior table a CharacterDef's owner dispatches
// through — mirrors spec.md §3 Kind enum.
type CharKind int

const (
	KindNormal       CharKind = 0
	KindFighter      CharKind = 1
	KindFollower     CharKind = 3
	KindGroundAnimal CharKind = 4
	KindEventer      CharKind = 5
	KindAfraidPlayer CharKind = 6
	KindFlyer        CharKind = 7
	KindPlayer       CharKind = 9
)

// Relation is the CharacterDef-level faction relation.
type Relation int

const (
	RelationFriend Relation = iota
	RelationEnemy
	RelationNeutral
	RelationNone
)

// CharacterDef is the immutable, load-once static configuration for a
// character or NPC template.
type CharacterDef struct {
	Key            string   `yaml:"key"`
	Name           string   `yaml:"name"`
	SpriteSheetKey string   `yaml:"sprite_sheet_key"`
	Kind           CharKind `yaml:"kind"`
	Relation       Relation `yaml:"relation"`

	Level    int `yaml:"level"`
	HP       int `yaml:"hp"`
	MP       int `yaml:"mp"`
	Attack1  int `yaml:"attack1"`
	Attack2  int `yaml:"attack2"`
	Attack3  int `yaml:"attack3"`
	Defend1  int `yaml:"defend1"`
	Defend2  int `yaml:"defend2"`
	Defend3  int `yaml:"defend3"`
	Evade    int `yaml:"evade"`
	WalkSpeed int `yaml:"walk_speed"`

	// AI parameters (§4.4)
	AIType                        int    `yaml:"ai_type"`
	PathFinder                    int    `yaml:"path_finder"`
	VisionRadius                  int    `yaml:"vision_radius"`
	AttackRadius                  int    `yaml:"attack_radius"`
	LifeLowPercent                int    `yaml:"life_low_percent"`
	MagicToUseWhenLifeLow         string `yaml:"magic_when_life_low"`
	KeepRadiusWhenLifeLow         int    `yaml:"keep_radius_when_life_low"`
	KeepRadiusWhenFriendDeath     int    `yaml:"keep_radius_when_friend_death"`
	MagicToUseWhenDeath           string `yaml:"magic_when_death"`
	MagicDirectionWhenDeath       int    `yaml:"magic_direction_when_death"`
	MagicToUseWhenBeAttacked      string `yaml:"magic_when_be_attacked"`
	MagicDirectionWhenBeAttacked  int    `yaml:"magic_direction_when_be_attacked"`
	// Magics is the general combat magic-file-name list (spec §3's
	// CharacterDef "magic file names"); a chase-and-act "cast" AICommand
	// indexes into it by SkillID.
	Magics                        []string `yaml:"magics"`
	StopFindingTarget             bool   `yaml:"stop_finding_target"`
	FixedPath                     string `yaml:"fixed_path"` // hex-pair encoded
	DeathScript                   string `yaml:"death_script"`
	DropTableKey                  string `yaml:"drop_table_key"`
	IsPartner                     bool   `yaml:"is_partner"`
	ReviveMilliseconds             int    `yaml:"revive_milliseconds"`
	DeleteTicks                   int    `yaml:"delete_ticks"`
}

// NpcResource maps animation states to image/sound assets.
type NpcResource struct {
	States map[string]StateResource `yaml:"states"`
}

type StateResource struct {
	Image string `yaml:"image"`
	Sound string `yaml:"sound"`
}

// ObjectDef is static object configuration.
type ObjectDef struct {
	Key                string `yaml:"key"`
	Obstacle           bool   `yaml:"obstacle"`
	ScriptFile         string `yaml:"script_file"`
	ScriptFileRight    string `yaml:"script_file_right"`
	TimerScriptFile    string `yaml:"timer_script_file"`
	TimerScriptInterval int   `yaml:"timer_script_interval"`
	Damage             int    `yaml:"damage"`
	MillisecondsToRemove int  `yaml:"milliseconds_to_remove"`
	FrameBegin         int    `yaml:"frame_begin"`
	FrameEnd           int    `yaml:"frame_end"`
}

// ObjectResource maps an object key to its image/sound assets.
type ObjectResource struct {
	Image string `yaml:"image"`
	Sound string `yaml:"sound"`
}

// Region shape selector for MoveKind 11 RegionBased formations.
type Region int

const (
	RegionSquare Region = iota
	RegionCross
	RegionRectangle
	RegionIsoTriangle
	RegionV
)

// MagicDef is the static configuration for one magic/level pair.
type MagicDef struct {
	Key            string  `yaml:"key"`
	Level          int     `yaml:"level"`
	MoveKind       int     `yaml:"move_kind"`
	Speed          float64 `yaml:"speed"`
	LifeFrame      int     `yaml:"life_frame"`
	WaitFrame      int     `yaml:"wait_frame"`
	RangeRadius    int     `yaml:"range_radius"`
	Region         Region  `yaml:"region"`
	PassThrough    bool    `yaml:"pass_through"`
	PassThroughWall bool   `yaml:"pass_through_wall"`
	AttackAll      bool    `yaml:"attack_all"`
	TraceEnemy     bool    `yaml:"trace_enemy"`
	Bounce         bool    `yaml:"bounce"`
	BounceHurt     int     `yaml:"bounce_hurt"` // flat damage reduction applied per reflection (spec §4.5)
	VibratingScreen bool   `yaml:"vibrating_screen"`
	AlphaBlend     bool    `yaml:"alpha_blend"`
	Damage         int     `yaml:"damage"`
	ManaCost       int     `yaml:"mana_cost"`
	Extra          int     `yaml:"extra"`
	SuperModeImage string  `yaml:"super_mode_image"`
	TraceSpeed     float64 `yaml:"trace_speed"`

	// Status effects carried by a hit (spec §4.6 step 5): latched onto the
	// target as max(existing, carried), never summed.
	PoisonSeconds    int `yaml:"poison_seconds"`
	PetrifiedSeconds int `yaml:"petrified_seconds"`
	FrozenSeconds    int `yaml:"frozen_seconds"`
}

// SpriteSheet is decoded frame metadata — the asset collaborator owns the
// actual decoded image bytes; the core only needs frame geometry/timing.
type SpriteSheet struct {
	Path               string `yaml:"path"`
	Width              int    `yaml:"width"`
	Height             int    `yaml:"height"`
	Directions         int    `yaml:"directions"`
	FramesPerDirection int    `yaml:"frames_per_direction"`
	IntervalMs         int    `yaml:"interval_ms"`
	Left               int    `yaml:"left"`
	Bottom             int    `yaml:"bottom"`
}

// DropEntry is one row of a drop table, supplemented per DESIGN.md from
// the teacher's internal/data/drop.go.
type DropEntry struct {
	ItemKey         string `yaml:"item_key"`
	Min             int    `yaml:"min"`
	Max             int    `yaml:"max"`
	ChancePerMillion int   `yaml:"chance_per_million"`
	EnchantLevel    int    `yaml:"enchant_level"`
}

// Registry is the external asset-store interface the core depends on
// (spec.md §6.1, realized per SPEC_FULL.md §5).
type Registry interface {
	CharacterDef(key string) (*CharacterDef, bool)
	NpcResource(key string) (*NpcResource, bool)
	ObjectDef(key string) (*ObjectDef, bool)
	ObjectResource(key string) (*ObjectResource, bool)
	MagicDef(key string, level int) (*MagicDef, bool)
	SpriteSheet(path string) (*SpriteSheet, bool)
	DropTable(key string) ([]DropEntry, bool)
}
