package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/annel0/pixel-platformer/internal/config"
	"github.com/annel0/pixel-platformer/internal/replay"
	"github.com/annel0/pixel-platformer/internal/storage"
)

const timeFormat = "2006-01-02 15:04:05"

func main() {
	var (
		dir        = flag.String("dir", "data/replays", "каталог BadgerDB с повторами")
		command    = flag.String("cmd", "list", "Command: list, dump, verify, delete")
		session    = flag.String("session", "", "ID сессии для dump/verify/delete")
		configPath = flag.String("config", "", "конфиг симуляции для verify (параметры игрока)")
		limit      = flag.Int("limit", 0, "dump: максимум кадров (0 — все)")
		asJSON     = flag.Bool("json", false, "вывод в JSON")
	)
	flag.Parse()

	store, err := storage.OpenReplayStore(*dir)
	if err != nil {
		log.Fatalf("❌ Failed to open replay store: %v", err)
	}
	defer store.Close()

	switch *command {
	case "list":
		err = listSessions(store, *asJSON)
	case "dump":
		err = dumpSession(store, requireSession(*session), *limit, *asJSON)
	case "verify":
		err = verifySession(store, requireSession(*session), *configPath, *asJSON)
	case "delete":
		err = store.DeleteSession(requireSession(*session))
		if err == nil {
			fmt.Printf("🗑️  Session %s deleted\n", *session)
		}
	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: list, dump, verify, delete")
		os.Exit(1)
	}
	if err != nil {
		store.Close()
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func requireSession(id string) string {
	if id == "" {
		fmt.Println("❌ -session is required")
		os.Exit(1)
	}
	return id
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// listSessions выводит сессии, новые первыми
func listSessions(store *storage.ReplayStore, asJSON bool) error {
	sessions, err := store.Sessions()
	if err != nil {
		return err
	}
	if asJSON {
		return printJSON(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("📭 No sessions")
		return nil
	}
	fmt.Printf("🎬 %d session(s)\n", len(sessions))
	for _, s := range sessions {
		status := "open"
		if !s.ClosedAt.IsZero() {
			status = fmt.Sprintf("closed %s", s.ClosedAt.Format(timeFormat))
		}
		fmt.Printf("  %s  %-16s frames=%-7d chunks=%-3d %s (%s)\n",
			s.ID, s.Level, s.Frames, s.Chunks, s.CreatedAt.Format(timeFormat), status)
	}
	return nil
}

// dumpSession печатает кадры ввода в компактной записи
func dumpSession(store *storage.ReplayStore, id string, limit int, asJSON bool) error {
	meta, frames, err := replay.Load(store, id)
	if err != nil {
		return err
	}
	if limit > 0 && limit < len(frames) {
		frames = frames[:limit]
	}
	if asJSON {
		out := make([]string, len(frames))
		for i, f := range frames {
			out[i] = f.String()
		}
		return printJSON(map[string]interface{}{"session": meta, "frames": out})
	}

	fmt.Printf("🎬 %s level=%s seed=%d checksum=%016x\n", meta.ID, meta.Level, meta.Seed, meta.Checksum)
	// одинаковые подряд кадры сворачиваются в "<кадров> <действия>", как в сценариях
	for i := 0; i < len(frames); {
		j := i
		for j < len(frames) && frames[j] == frames[i] {
			j++
		}
		fmt.Printf("%d %s\n", j-i, frames[i])
		i = j
	}
	return nil
}

// verifySession прогоняет повтор и сравнивает отпечаток
func verifySession(store *storage.ReplayStore, id, configPath string, asJSON bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	start := time.Now()
	res, err := replay.Verify(store, id, cfg)
	if err != nil {
		return err
	}
	if asJSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else if res.OK {
		fmt.Printf("✅ %s: %d frames reproduced in %s (checksum %016x)\n", id, res.Frames, time.Since(start).Round(time.Millisecond), res.Actual)
	} else {
		fmt.Printf("❌ %s: checksum mismatch after %d frames: expected %016x, got %016x\n", id, res.Frames, res.Expected, res.Actual)
	}
	if !res.OK {
		store.Close()
		os.Exit(2)
	}
	return nil
}
