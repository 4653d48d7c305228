package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/toxichemicals/GO/holy-boxes/camera"
	"github.com/toxichemicals/GO/holy-boxes/config"
	"github.com/toxichemicals/GO/holy-boxes/core"
	"github.com/toxichemicals/GO/holy-boxes/export"
	"github.com/toxichemicals/GO/holy-boxes/physics"
	"github.com/toxichemicals/GO/holy-boxes/sim"
	"github.com/toxichemicals/GO/holy-boxes/sound"
	"github.com/toxichemicals/GO/holy-boxes/store"
)

var (
	configPath = flag.String("config", "holy-boxes.yaml", "YAML configuration file; defaults are used when it does not exist")
	dbPath     = flag.String("db", "", "box database (overrides store.path)")
	exportPath = flag.String("export", "", "write the stored boxes to a .gltf or .glb file and exit")
)

func main() {
	// GLFW and OpenGL calls must come from the main thread
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Configuration failed: %v", err)
	}
	if *dbPath != "" {
		cfg.Store.Path = *dbPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		stop()
		log.Fatalf("Holy Boxes failed: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.Load(ctx)
	if err != nil {
		return err
	}
	log.Printf("Loaded %d boxes from %s", len(records), cfg.Store.Path)

	if *exportPath != "" {
		if err := export.File(*exportPath, records); err != nil {
			return err
		}
		log.Printf("Exported %d boxes to %s", len(records), *exportPath)
		return nil
	}

	seed := cfg.Physics.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	world := physics.NewWorld(cfg.Physics, rand.New(rand.NewPCG(seed, seed>>1)))
	world.Initialize()
	world.Load(records)

	coreLib := core.NewCore(cfg.Window)
	if err := coreLib.Init(); err != nil {
		return err
	}
	defer coreLib.Shutdown()

	renderer, err := core.NewRenderer(cfg.Render)
	if err != nil {
		return err
	}
	defer renderer.Delete()

	var effects sim.Effects
	if cfg.Audio.Enabled {
		player, err := sound.NewPlayer(cfg.Audio.SampleRate)
		if err != nil {
			log.Printf("Audio disabled: %v", err)
		} else {
			defer player.Close()
			effects = player
		}
	}

	loop := sim.NewLoop(cfg.Loop, cfg.Physics.SubStep, sim.Deps{
		Input:    core.NewKeyboard(coreLib),
		Target:   coreLib,
		Renderer: renderer,
		World:    world,
		Camera:   camera.New(cfg.Camera),
		Saver:    db,
		Effects:  effects,
	})

	log.Println("Holy Boxes initialized. Starting main loop...")
	log.Println("Controls:")
	log.Println("  WASD: Move camera")
	log.Println("  Arrow keys: Look around")
	log.Println("  Space: Shoot a box")
	log.Println("  F1: Toggle wireframe")
	log.Println("  F2: Reset camera")
	log.Println("  F5: Reload shaders from render.shader_dir")
	log.Println("  ESC: Exit")

	if err := loop.Run(ctx); err != nil {
		return err
	}
	log.Println("Holy Boxes shutting down.")
	return nil
}
