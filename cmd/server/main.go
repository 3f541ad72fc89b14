package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	persistlog "emberhold/internal/persistence/log"
	"emberhold/internal/persistence/snapshot"
	"emberhold/internal/sim/catalogs"
	"emberhold/internal/sim/colony"
	"emberhold/internal/sim/scenario"
	"emberhold/internal/sim/tuning"
	"emberhold/internal/transport/observer"
)

func main() {
	var (
		addr         = flag.String("addr", ":8080", "http listen address")
		colonyID     = flag.String("colony", "colony_1", "colony id")
		seed         = flag.Int64("seed", 1337, "colony seed")
		configDir    = flag.String("configs", "./configs", "config directory")
		dataDir      = flag.String("data", "./data", "runtime data directory")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		scenarioPath = flag.String("scenario", "", "path to scenario.yaml (default: <configs>/scenario.yaml)")
		disableDB    = flag.Bool("disable_db", false, "disable the read-model index (tick/audit/snapshot rows)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	cats, err := catalogs.Load(*configDir)
	if err != nil {
		logger.Fatalf("load catalogs: %v", err)
	}

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Default()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	sp := strings.TrimSpace(*scenarioPath)
	if sp == "" {
		sp = filepath.Join(*configDir, "scenario.yaml")
	}
	scn, err := scenario.Load(sp)
	if err != nil {
		logger.Fatalf("load scenario: %v", err)
	}

	colonyDir := filepath.Join(*dataDir, "colonies", *colonyID)
	_ = os.MkdirAll(colonyDir, 0o755)

	// Optional: read-model index backend (does not affect sim determinism).
	idx, err := openRuntimeIndex(colonyDir, *disableDB, logger)
	if err != nil {
		logger.Fatalf("open index backend: %v", err)
	}
	if idx != nil {
		defer idx.Close()
	}

	col, err := colony.New(colony.Config{
		ID:           *colonyID,
		Seed:         *seed,
		Tuning:       tune,
		HubPos:       scn.HubPos(),
		StockpilePos: scn.StockpilePos(),
	}, cats)
	if err != nil {
		logger.Fatalf("colony: %v", err)
	}
	if err := scn.Apply(col); err != nil {
		logger.Fatalf("apply scenario: %v", err)
	}

	if idx != nil {
		if err := idx.UpsertCatalogs(*configDir, cats); err != nil {
			logger.Printf("index backend: upsert catalogs: %v", err)
		}
		if last, err := idx.LatestTick(); err == nil && last > 0 {
			logger.Printf("index backend: previously indexed through tick %d", last)
		}
	}
	logger.Printf("colony %s ready at %d ticks/s", col.ID(), col.TickRateHz())

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(colonyDir)
	auditLog := persistlog.NewAuditLogger(colonyDir)
	defer tickLog.Close()
	defer auditLog.Close()
	col.SetTickLogger(multiTickLogger{a: tickLog, b: idxTick(idx)})
	col.SetAuditLogger(multiAuditLogger{a: auditLog, b: idxAudit(idx)})

	// Snapshot writer.
	snapCh := make(chan colony.StateSnapshot, 2)
	col.SetSnapshotSink(snapCh)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapCh:
				path := filepath.Join(colonyDir, "snapshots", fmt.Sprintf("%d.snap.zst", snap.Tick))
				if err := snapshot.Write(path, snap); err != nil {
					logger.Printf("snapshot write: %v", err)
					continue
				}
				if idx != nil {
					idx.RecordSnapshot(snap)
				}
			}
		}
	}()

	go func() {
		if err := col.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("colony stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := col.Metrics()
		tick := col.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP emberhold_colony_tick Current colony tick.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_tick gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_tick{colony=%q} %d\n", *colonyID, tick)

		fmt.Fprintf(rw, "# HELP emberhold_colony_agents Current number of agents.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_agents gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_agents{colony=%q} %d\n", *colonyID, m.Agents)

		fmt.Fprintf(rw, "# HELP emberhold_colony_tasks Task counts by state.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_tasks gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_tasks{colony=%q,state=%q} %d\n", *colonyID, "pending", m.TasksPending)
		fmt.Fprintf(rw, "emberhold_colony_tasks{colony=%q,state=%q} %d\n", *colonyID, "in_progress", m.TasksInProgress)

		fmt.Fprintf(rw, "# HELP emberhold_colony_backlog Scheduler backlog size.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_backlog gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_backlog{colony=%q} %d\n", *colonyID, m.Backlog)

		fmt.Fprintf(rw, "# HELP emberhold_colony_backlog_drops_total Tasks refused because the backlog was full.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_backlog_drops_total counter\n")
		fmt.Fprintf(rw, "emberhold_colony_backlog_drops_total{colony=%q} %d\n", *colonyID, m.BacklogDrops)

		fmt.Fprintf(rw, "# HELP emberhold_colony_entities Entity counts.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_entities gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_entities{colony=%q,kind=%q} %d\n", *colonyID, "nodes", m.Nodes)
		fmt.Fprintf(rw, "emberhold_colony_entities{colony=%q,kind=%q} %d\n", *colonyID, "sites", m.Sites)
		fmt.Fprintf(rw, "emberhold_colony_entities{colony=%q,kind=%q} %d\n", *colonyID, "buildings", m.Buildings)

		fmt.Fprintf(rw, "# HELP emberhold_colony_stock Stockpile contents by resource.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_stock gauge\n")
		for _, res := range sortedStock(m.Stock) {
			fmt.Fprintf(rw, "emberhold_colony_stock{colony=%q,resource=%q} %d\n", *colonyID, res, m.Stock[res])
		}

		fmt.Fprintf(rw, "# HELP emberhold_colony_housing Housing capacity and occupancy.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_housing gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_housing{colony=%q,kind=%q} %d\n", *colonyID, "capacity", m.Housing.Capacity)
		fmt.Fprintf(rw, "emberhold_colony_housing{colony=%q,kind=%q} %d\n", *colonyID, "occupied", m.Housing.Occupied)

		fmt.Fprintf(rw, "# HELP emberhold_colony_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE emberhold_colony_step_ms gauge\n")
		fmt.Fprintf(rw, "emberhold_colony_step_ms{colony=%q} %.3f\n", *colonyID, m.StepMS)
	})
	mux.HandleFunc("/v1/place", func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body struct {
			Building string `json:"building"`
			X        int    `json:"x"`
			Y        int    `json:"y"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(rw, "bad request", http.StatusBadRequest)
			return
		}
		resp := make(chan error, 1)
		select {
		case col.Place() <- colony.PlaceRequest{Building: body.Building, Pos: colony.Vec2{X: body.X, Y: body.Y}, Resp: resp}:
		case <-time.After(2 * time.Second):
			http.Error(rw, "colony busy", http.StatusServiceUnavailable)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		select {
		case err := <-resp:
			if err != nil {
				rw.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(rw).Encode(map[string]any{"ok": false, "error": err.Error()})
				return
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": true})
		case <-time.After(5 * time.Second):
			http.Error(rw, "timeout", http.StatusServiceUnavailable)
		}
	})
	mux.HandleFunc("/v1/observer", observer.NewServer(col, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func sortedStock(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type multiTickLogger struct {
	a colony.TickLogger
	b colony.TickLogger
}

func (m multiTickLogger) WriteTick(entry colony.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}

type multiAuditLogger struct {
	a colony.AuditLogger
	b colony.AuditLogger
}

func (m multiAuditLogger) WriteAudit(entry colony.AuditEntry) error {
	if m.a != nil {
		_ = m.a.WriteAudit(entry)
	}
	if m.b != nil {
		_ = m.b.WriteAudit(entry)
	}
	return nil
}
