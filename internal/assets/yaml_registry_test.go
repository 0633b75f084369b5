package assets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadYAMLRegistryMissingDir(t *testing.T) {
	r, err := LoadYAMLRegistry(t.TempDir())
	if err != nil {
		t.Fatalf("LoadYAMLRegistry: %v", err)
	}
	if _, ok := r.CharacterDef("wolf"); ok {
		t.Error("expected empty registry to have no character defs")
	}
}

func TestLoadYAMLRegistryCharacters(t *testing.T) {
	dir := t.TempDir()
	body := `
characters:
  - key: wolf
    name: Wolf
    kind: 1
    relation: 1
    level: 5
    hp: 100
    vision_radius: 10
    attack_radius: 1
`
	if err := os.WriteFile(filepath.Join(dir, "characters.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadYAMLRegistry(dir)
	if err != nil {
		t.Fatalf("LoadYAMLRegistry: %v", err)
	}
	def, ok := r.CharacterDef("wolf")
	if !ok {
		t.Fatal("expected wolf character def")
	}
	if def.HP != 100 || def.VisionRadius != 10 {
		t.Errorf("unexpected def: %+v", def)
	}
	if def.Kind != KindFighter {
		t.Errorf("expected KindFighter, got %v", def.Kind)
	}
}

func TestMagicDefKeyedByLevel(t *testing.T) {
	dir := t.TempDir()
	body := `
magics:
  - key: fireball
    level: 1
    move_kind: 2
    speed: 5
  - key: fireball
    level: 2
    move_kind: 2
    speed: 7
`
	if err := os.WriteFile(filepath.Join(dir, "magics.yaml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := LoadYAMLRegistry(dir)
	if err != nil {
		t.Fatalf("LoadYAMLRegistry: %v", err)
	}
	lvl1, ok := r.MagicDef("fireball", 1)
	if !ok || lvl1.Speed != 5 {
		t.Errorf("expected level 1 speed 5, got %+v ok=%v", lvl1, ok)
	}
	lvl2, ok := r.MagicDef("fireball", 2)
	if !ok || lvl2.Speed != 7 {
		t.Errorf("expected level 2 speed 7, got %+v ok=%v", lvl2, ok)
	}
	if _, ok := r.MagicDef("fireball", 3); ok {
		t.Error("expected no level 3 def")
	}
}
