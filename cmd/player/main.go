package main

import (
	"errors"
	"flag"
	"log"
	"strings"

	"github.com/sqweek/dialog"

	"github.com/user-none/edrive/standalone"
	"github.com/user-none/edrive/storage"
)

func main() {
	romPath := flag.String("rom", "", "path to ROM file (opens a picker if not provided)")
	regionFlag := flag.String("region", "auto", "region: auto, ntsc, or pal")
	scale := flag.Int("scale", 0, "window scale factor (overrides config)")
	fullscreen := flag.Bool("fullscreen", false, "start in fullscreen")
	mute := flag.Bool("mute", false, "start muted")
	flag.Parse()

	factory := demoFactory{}
	info := factory.SystemInfo()

	storage.Init(info.DataDirName)
	if err := storage.EnsureDirectories(); err != nil {
		log.Fatalf("failed to create data directories: %v", err)
	}

	cfg, err := storage.LoadConfig()
	if err != nil {
		log.Printf("Config unreadable, using defaults: %v", err)
		cfg = storage.DefaultConfig()
	}
	if *scale > 0 {
		cfg.Video.Scale = *scale
	}
	if *fullscreen {
		cfg.Video.Fullscreen = true
	}
	if *mute {
		cfg.Audio.Muted = true
	}

	path := *romPath
	if path == "" {
		path, err = pickROM(info.Extensions)
		if err != nil {
			if errors.Is(err, dialog.ErrCancelled) {
				return
			}
			log.Fatalf("failed to pick ROM: %v", err)
		}
	}

	if err := standalone.Run(factory, path, *regionFlag, cfg); err != nil {
		log.Fatal(err)
	}
}

// pickROM opens a native file dialog filtered to the system's ROM
// extensions plus the archive formats the loader understands.
func pickROM(extensions []string) (string, error) {
	exts := make([]string, 0, len(extensions)+5)
	for _, e := range extensions {
		exts = append(exts, strings.TrimPrefix(e, "."))
	}
	exts = append(exts, "zip", "7z", "gz", "tgz", "rar")

	return dialog.File().Title("Select ROM").Filter("ROM files", exts...).Load()
}
