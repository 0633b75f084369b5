// Command jianghu boots one world-tick core: it loads config and content,
// wires a worldtick.Context, restores the starting zone's saved roster (if
// any), spawns the player, and drives the tick loop until a shutdown signal
// arrives. Grounded on the teacher's cmd/l1jgo/main.go boot sequence
// (config → logger → persistence → content tables → engine → systems →
// loop), adapted from a TCP-accepting game server to a single-process,
// no-network simulation binary — there is no net.Server here because
// networking is this core's explicit Non-goal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ninesuns/jianghu/internal/assets"
	"github.com/ninesuns/jianghu/internal/character"
	"github.com/ninesuns/jianghu/internal/config"
	"github.com/ninesuns/jianghu/internal/geom"
	"github.com/ninesuns/jianghu/internal/logging"
	"github.com/ninesuns/jianghu/internal/metrics"
	"github.com/ninesuns/jianghu/internal/scripting"
	"github.com/ninesuns/jianghu/internal/snapshot"
	"github.com/ninesuns/jianghu/internal/snapshot/memrepo"
	"github.com/ninesuns/jianghu/internal/snapshot/pgrepo"
	"github.com/ninesuns/jianghu/internal/terrain"
	"github.com/ninesuns/jianghu/internal/worldtick"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ─────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              jianghu core                 \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      isometric action-RPG world tick      \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main boot sequence ───────────────────────────────────────────────

func run() error {
	cfgPath := "config/world.toml"
	if p := os.Getenv("JIANGHU_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	printSection("內容載入")
	registry, err := assets.LoadYAMLRegistry(cfg.Content.ContentDir)
	if err != nil {
		return fmt.Errorf("load content registry: %w", err)
	}
	printOK("角色／物件／魔法定義載入完成")

	scriptEngine, err := scripting.NewLuaRunner(cfg.Content.ScriptDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer scriptEngine.Close()
	printOK("Lua 腳本載入完成")

	maps, err := terrain.LoadMapList(cfg.Content.MapListFile)
	if err != nil {
		return fmt.Errorf("load map list: %w", err)
	}
	printStat("地圖數量", len(maps))

	var startInfo terrain.MapInfo
	found := false
	for _, mi := range maps {
		if mi.ZoneFile == cfg.Content.StartZone {
			startInfo, found = mi, true
			break
		}
	}
	if !found {
		return fmt.Errorf("start zone %q not found in map list", cfg.Content.StartZone)
	}

	mapBase, err := terrain.LoadMapBase(startInfo, cfg.Content.MapTileDir)
	if err != nil {
		return fmt.Errorf("load map base %s: %w", startInfo.ZoneFile, err)
	}
	printStat("起始地圖尺寸", startInfo.Cols*startInfo.Rows)
	fmt.Println()

	printSection("持久化")
	var repo snapshot.Repository
	switch cfg.Persist.Driver {
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		pg, err := pgrepo.Open(ctx, cfg.Persist)
		cancel()
		if err != nil {
			return fmt.Errorf("connect snapshot store: %w", err)
		}
		defer pg.Close()
		repo = pg
		printOK("PostgreSQL 快照倉儲就緒")
	default:
		repo = memrepo.New()
		printOK("記憶體快照倉儲就緒")
	}
	fmt.Println()

	met := metrics.New()

	worldCtx := worldtick.New(cfg, log, registry, scriptEngine, repo, met)

	loadCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = worldCtx.LoadZone(loadCtx, startInfo.ZoneFile, mapBase)
	cancel()
	if err != nil {
		return fmt.Errorf("load zone %s: %w", startInfo.ZoneFile, err)
	}

	partnerCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = worldCtx.LoadPartner(partnerCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("load partner: %w", err)
	}

	player := worldCtx.Npcs.SpawnPlayer(geom.Tile{X: startInfo.Cols / 2, Y: startInfo.Rows / 2}, character.Stats{
		Life: 100, LifeMax: 100, Mana: 50, ManaMax: 50,
		Attack1: 10, Defend1: 5, WalkSpeed: 1, Level: 1,
	})
	log.Info("玩家已生成", zap.Uint64("entity_id", uint64(player.ID)), zap.Int("x", player.Tile.X), zap.Int("y", player.Tile.Y))
	printStat("世界現存 NPC", worldCtx.Npcs.Count())
	printStat("世界現存物件", worldCtx.Objs.Count())
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	printSection("世界就緒")
	printReady(fmt.Sprintf("tick 頻率 %s", cfg.Sim.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			worldCtx.Tick(cfg.Sim.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err := worldCtx.SaveZone(saveCtx)
			cancel()
			if err != nil {
				log.Error("儲存世界快照失敗", zap.Error(err))
			}
			partnerCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			err = worldCtx.SavePartner(partnerCtx)
			cancel()
			if err != nil {
				log.Error("儲存夥伴快照失敗", zap.Error(err))
			}
			log.Info("世界已停止")
			return nil
		}
	}
}
