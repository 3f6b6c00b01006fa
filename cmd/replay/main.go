package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	persistlog "portsim.ai/internal/persistence/log"
	"portsim.ai/internal/persistence/snapshot"
	"portsim.ai/internal/sim/catalogs"
	"portsim.ai/internal/sim/world"
)

func main() {
	var (
		runDir    = flag.String("run", "", "run directory containing run.json and events/")
		configDir = flag.String("configs", "./configs", "config directory")
		toTick    = flag.Uint64("to_tick", 0, "stop at tick (inclusive, optional)")
	)
	flag.Parse()

	if *runDir == "" {
		fmt.Fprintln(os.Stderr, "missing -run")
		os.Exit(2)
	}

	res, err := verify(*runDir, *configDir, *toTick)
	if err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: run=%s checked=%d ticks report=%t\n", res.RunID, res.Checked, res.ReportChecked)
}

type result struct {
	RunID   string
	Checked uint64

	// ReportChecked is set when the final statistics matched the stored report.
	ReportChecked bool
}

var errStop = errors.New("stop")

func verify(runDir, configDir string, toTick uint64) (result, error) {
	m, err := persistlog.ReadManifest(runDir)
	if err != nil {
		return result{}, fmt.Errorf("read manifest: %w", err)
	}
	res := result{RunID: m.RunID}
	if !m.FakeOracle {
		return res, fmt.Errorf("run %s used the external analysis oracle and cannot be replayed", m.RunID)
	}

	cats, err := catalogs.Load(configDir)
	if err != nil {
		return res, fmt.Errorf("load catalogs: %w", err)
	}
	for _, d := range []struct{ name, got, want string }{
		{catalogs.ItemsFile, cats.ItemsDigest, m.ItemsDigest},
		{catalogs.CompaniesFile, cats.CompaniesDigest, m.CompaniesDigest},
		{catalogs.LocationsFile, cats.LocationsDigest, m.LocationsDigest},
	} {
		if d.got != d.want {
			return res, fmt.Errorf("%s digest mismatch: got=%s want=%s", d.name, d.got, d.want)
		}
	}

	quiet := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	w, err := world.New(m.Config, cats, world.Env{Log: quiet})
	if err != nil {
		return res, fmt.Errorf("world: %w", err)
	}

	err = persistlog.ReadTicks(persistlog.EventsDir(runDir), func(entry world.TickLogEntry) error {
		if toTick != 0 && entry.Tick > toTick {
			return errStop
		}
		if entry.Tick != w.CurrentTick() {
			return fmt.Errorf("tick mismatch: want=%d got=%d", w.CurrentTick(), entry.Tick)
		}
		tick, digest := w.StepOnce()
		if digest != entry.Digest {
			return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", tick, digest, entry.Digest)
		}
		res.Checked++
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return res, err
	}
	if res.Checked == 0 {
		return res, fmt.Errorf("no journal entries under %s", persistlog.EventsDir(runDir))
	}

	snap, err := snapshot.ReadReport(snapshot.Path(runDir))
	if errors.Is(err, os.ErrNotExist) || (err == nil && snap.Header.Tick != w.CurrentTick()) {
		// Interrupted run or partial replay: nothing to compare.
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("read report: %w", err)
	}
	var want, got bytes.Buffer
	if err := snap.Report.WriteText(&want); err != nil {
		return res, err
	}
	if err := w.Stats().Report().WriteText(&got); err != nil {
		return res, err
	}
	if want.String() != got.String() {
		return res, fmt.Errorf("final report mismatch at tick %d", w.CurrentTick())
	}
	res.ReportChecked = true
	return res, nil
}
