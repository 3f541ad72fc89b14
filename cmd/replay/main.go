// Replay verifier: rebuilds a colony from its configs and re-runs the tick
// journal, checking the per-tick state digest at every step.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zstd"

	"emberhold/internal/sim/catalogs"
	"emberhold/internal/sim/colony"
	"emberhold/internal/sim/scenario"
	"emberhold/internal/sim/tuning"
)

func main() {
	var (
		ticksDir  = flag.String("ticks", "", "dir containing ticks-*.jsonl.zst")
		configDir = flag.String("configs", "./configs", "config directory")
		colonyID  = flag.String("colony", "colony_1", "colony id")
		seed      = flag.Int64("seed", 1337, "colony seed (must match the recorded run)")
		fromTick  = flag.Uint64("from_tick", 0, "start verifying from tick (inclusive, optional)")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *ticksDir == "" {
		fmt.Fprintln(os.Stderr, "missing -ticks")
		os.Exit(2)
	}

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tune, err := tuning.Load(filepath.Join(*configDir, "tuning.yaml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	scn, err := scenario.Load(filepath.Join(*configDir, "scenario.yaml"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "load scenario:", err)
		os.Exit(1)
	}

	col, err := colony.New(colony.Config{
		ID:           *colonyID,
		Seed:         *seed,
		Tuning:       tune,
		HubPos:       scn.HubPos(),
		StockpilePos: scn.StockpilePos(),
	}, cats)
	if err != nil {
		fmt.Fprintln(os.Stderr, "colony:", err)
		os.Exit(1)
	}
	if err := scn.Apply(col); err != nil {
		fmt.Fprintln(os.Stderr, "apply scenario:", err)
		os.Exit(1)
	}

	files, err := listTickFiles(*ticksDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list ticks:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "no tick files found in", *ticksDir)
		os.Exit(1)
	}

	var checked uint64
	for _, path := range files {
		if err := replayFile(col, path, *fromTick, *toTick, &checked); err != nil {
			fmt.Fprintln(os.Stderr, "replay:", err)
			os.Exit(1)
		}
		if *toTick != 0 && col.CurrentTick() > *toTick {
			break
		}
	}
	fmt.Printf("replay ok: checked=%d ticks\n", checked)
}

func listTickFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "ticks-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func replayFile(col *colony.Colony, path string, verifyFrom, toTick uint64, checked *uint64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	for sc.Scan() {
		line := sc.Bytes()
		var entry colony.TickLogEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			return fmt.Errorf("%s: unmarshal: %w", filepath.Base(path), err)
		}
		if toTick != 0 && entry.Tick > toTick {
			return nil
		}
		if entry.Tick != col.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d (file=%s)", col.CurrentTick(), entry.Tick, filepath.Base(path))
		}

		places := make([]colony.PlaceRequest, 0, len(entry.Places))
		for _, p := range entry.Places {
			places = append(places, colony.PlaceRequest{
				Building: p.Building,
				Pos:      colony.Vec2{X: p.Pos[0], Y: p.Pos[1]},
			})
		}

		tick, gotDigest := col.StepOnce(places)
		if tick != entry.Tick {
			return fmt.Errorf("internal tick mismatch: stepped=%d entry=%d (file=%s)", tick, entry.Tick, filepath.Base(path))
		}

		if tick >= verifyFrom {
			*checked++
			if gotDigest != entry.Digest {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, gotDigest, entry.Digest)
			}
		}
	}
	return sc.Err()
}
