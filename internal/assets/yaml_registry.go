package assets

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// YAMLRegistry is a reference Registry implementation backed by YAML
// content files, one table per definition kind — directly grounded on
// internal/data/npc.go's LoadNpcTable/Get/Count shape, repeated per table.
type YAMLRegistry struct {
	characters map[string]*CharacterDef
	npcRes     map[string]*NpcResource
	objects    map[string]*ObjectDef
	objRes     map[string]*ObjectResource
	magics     map[magicKey]*MagicDef
	sprites    map[string]*SpriteSheet
	drops      map[string][]DropEntry
}

type magicKey struct {
	key   string
	level int
}

type characterDefFile struct {
	Characters []CharacterDef `yaml:"characters"`
}

type npcResourceFile struct {
	Resources map[string]NpcResource `yaml:"resources"`
}

type objectDefFile struct {
	Objects []ObjectDef `yaml:"objects"`
}

type objectResourceFile struct {
	Resources map[string]ObjectResource `yaml:"resources"`
}

type magicDefFile struct {
	Magics []MagicDef `yaml:"magics"`
}

type spriteSheetFile struct {
	Sheets []SpriteSheet `yaml:"sheets"`
}

type dropTableFile struct {
	Tables map[string][]DropEntry `yaml:"tables"`
}

// LoadYAMLRegistry loads every content table under root. Each file is
// optional; a missing file leaves that table empty rather than failing the
// whole load, matching the teacher's tolerance for partial content during
// development.
func LoadYAMLRegistry(root string) (*YAMLRegistry, error) {
	r := &YAMLRegistry{
		characters: map[string]*CharacterDef{},
		npcRes:     map[string]*NpcResource{},
		objects:    map[string]*ObjectDef{},
		objRes:     map[string]*ObjectResource{},
		magics:     map[magicKey]*MagicDef{},
		sprites:    map[string]*SpriteSheet{},
		drops:      map[string][]DropEntry{},
	}

	if err := loadYAML(filepath.Join(root, "characters.yaml"), &characterDefFile{}, func(v any) {
		f := v.(*characterDefFile)
		for i := range f.Characters {
			c := &f.Characters[i]
			r.characters[c.Key] = c
		}
	}); err != nil {
		return nil, err
	}

	if err := loadYAML(filepath.Join(root, "npc_resources.yaml"), &npcResourceFile{}, func(v any) {
		f := v.(*npcResourceFile)
		for k := range f.Resources {
			res := f.Resources[k]
			r.npcRes[k] = &res
		}
	}); err != nil {
		return nil, err
	}

	if err := loadYAML(filepath.Join(root, "objects.yaml"), &objectDefFile{}, func(v any) {
		f := v.(*objectDefFile)
		for i := range f.Objects {
			o := &f.Objects[i]
			r.objects[o.Key] = o
		}
	}); err != nil {
		return nil, err
	}

	if err := loadYAML(filepath.Join(root, "object_resources.yaml"), &objectResourceFile{}, func(v any) {
		f := v.(*objectResourceFile)
		for k := range f.Resources {
			res := f.Resources[k]
			r.objRes[k] = &res
		}
	}); err != nil {
		return nil, err
	}

	if err := loadYAML(filepath.Join(root, "magics.yaml"), &magicDefFile{}, func(v any) {
		f := v.(*magicDefFile)
		for i := range f.Magics {
			m := &f.Magics[i]
			r.magics[magicKey{key: m.Key, level: m.Level}] = m
		}
	}); err != nil {
		return nil, err
	}

	if err := loadYAML(filepath.Join(root, "sprites.yaml"), &spriteSheetFile{}, func(v any) {
		f := v.(*spriteSheetFile)
		for i := range f.Sheets {
			s := &f.Sheets[i]
			r.sprites[s.Path] = s
		}
	}); err != nil {
		return nil, err
	}

	if err := loadYAML(filepath.Join(root, "drops.yaml"), &dropTableFile{}, func(v any) {
		f := v.(*dropTableFile)
		for k, v := range f.Tables {
			r.drops[k] = v
		}
	}); err != nil {
		return nil, err
	}

	return r, nil
}

func loadYAML(path string, target any, apply func(any)) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	apply(target)
	return nil
}

func (r *YAMLRegistry) CharacterDef(key string) (*CharacterDef, bool) {
	v, ok := r.characters[key]
	return v, ok
}

func (r *YAMLRegistry) NpcResource(key string) (*NpcResource, bool) {
	v, ok := r.npcRes[key]
	return v, ok
}

func (r *YAMLRegistry) ObjectDef(key string) (*ObjectDef, bool) {
	v, ok := r.objects[key]
	return v, ok
}

func (r *YAMLRegistry) ObjectResource(key string) (*ObjectResource, bool) {
	v, ok := r.objRes[key]
	return v, ok
}

func (r *YAMLRegistry) MagicDef(key string, level int) (*MagicDef, bool) {
	v, ok := r.magics[magicKey{key: key, level: level}]
	return v, ok
}

func (r *YAMLRegistry) SpriteSheet(path string) (*SpriteSheet, bool) {
	v, ok := r.sprites[path]
	return v, ok
}

func (r *YAMLRegistry) DropTable(key string) ([]DropEntry, bool) {
	v, ok := r.drops[key]
	return v, ok
}

// Count reports how many entries are loaded across all tables, mainly for
// boot-time logging (teacher pattern: NpcTable.Count/printSection stats).
func (r *YAMLRegistry) Count() int {
	return len(r.characters) + len(r.npcRes) + len(r.objects) + len(r.objRes) + len(r.magics) + len(r.sprites) + len(r.drops)
}

var _ Registry = (*YAMLRegistry)(nil)
