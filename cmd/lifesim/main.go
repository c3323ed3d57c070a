// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ClusterCockpit/lifesim/internal/config"
	"github.com/ClusterCockpit/lifesim/internal/journal"
	"github.com/ClusterCockpit/lifesim/internal/maintenance"
	"github.com/ClusterCockpit/lifesim/internal/metrics"
	"github.com/ClusterCockpit/lifesim/internal/patternio"
	"github.com/ClusterCockpit/lifesim/internal/publish"
	"github.com/ClusterCockpit/lifesim/internal/render"
	"github.com/ClusterCockpit/lifesim/internal/sim"
	apiserver "github.com/ClusterCockpit/lifesim/internal/api"
	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

var version string = "development"

func main() {
	app := &cli.App{
		Name:    "lifesim",
		Usage:   "run a parallel Conway's Game of Life simulation over a sparse quadtree grid",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to config.json",
				Value: "",
			},
			&cli.StringFlag{
				Name:  "loglevel",
				Usage: "sets the logging level: [debug, info, notice, warn, err, crit]",
				Value: "info",
			},
			&cli.BoolFlag{
				Name:  "logdate",
				Usage: "add date and time to log messages",
			},
			&cli.BoolFlag{
				Name:  "render",
				Usage: "draw a plain terminal view of the grid between generations",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("lifesim: %v", err)
	}
}

func run(cctx *cli.Context) error {
	log.SetLogLevel(cctx.String("loglevel"))
	log.SetLogDateTime(cctx.Bool("logdate"))

	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	simCtx := sim.NewContext(sim.Options{Workers: cfg.Workers})
	defer simCtx.Close()

	var bounds patternio.Bounds
	if cfg.PatternFile != "" {
		bounds, err = loadPattern(cfg, simCtx.Grid)
		if err != nil {
			return fmt.Errorf("loading pattern %s: %w", cfg.PatternFile, err)
		}
		log.Infof("loaded %s spanning (%d,%d)-(%d,%d)", cfg.PatternFile, bounds.West, bounds.North, bounds.East, bounds.South)
	}

	var view *render.View
	if cctx.Bool("render") {
		view = render.NewView(os.Stdout, bounds, 0, 0)
		view.DrawFull(simCtx.Grid)
	}

	collector := metrics.New()

	var j *journal.Journal
	if cfg.Journal.Enabled {
		j, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer j.Close()
	}

	var pub *publish.Publisher
	if cfg.Publish.Enabled {
		pub, err = publish.Connect(publish.Config{
			Address:       cfg.Publish.Address,
			Username:      cfg.Publish.Username,
			Password:      cfg.Publish.Password,
			CredsFilePath: cfg.Publish.CredsFilePath,
			Subject:       cfg.Publish.Subject,
		})
		if err != nil {
			log.Warnf("change-event publisher disabled: %v", err)
		} else {
			defer pub.Close()
		}
	}

	var apiSrv *apiserver.Server
	if cfg.API.Enabled {
		apiSrv = apiserver.New(simCtx, collectorOrNil(cfg, collector))
		go func() {
			log.Infof("api: listening on %s", cfg.API.Addr)
			if err := http.ListenAndServe(cfg.API.Addr, apiSrv.Router()); err != nil && err != http.ErrServerClosed {
				log.Errorf("api: %v", err)
			}
		}()
	}

	maintOpts := maintenance.Options{
		FootprintLogInterval: parseDurationOrZero(cfg.Maintenance.FootprintLogInterval),
	}
	if cfg.Journal.Enabled {
		maintOpts.JournalRetention = parseDurationOrZero(cfg.Journal.Retention)
		maintOpts.JournalCompactionInterval = parseDurationOrZero(cfg.Journal.CompactionInterval)
	}
	sched, err := maintenance.Start(maintOpts, j)
	if err != nil {
		return fmt.Errorf("starting maintenance scheduler: %w", err)
	}
	defer sched.Shutdown()

	return driverLoop(simCtx, cfg, collector, j, pub, apiSrv, view)
}

func collectorOrNil(cfg *config.Config, c *metrics.Collector) *metrics.Collector {
	if cfg.API.Metrics {
		return c
	}
	return nil
}

func parseDurationOrZero(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		log.Warnf("ignoring invalid duration %q: %v", s, err)
		return 0
	}
	return d
}

func loadPattern(cfg *config.Config, grid *sim.Grid) (patternio.Bounds, error) {
	f, err := os.Open(cfg.PatternFile)
	if err != nil {
		return patternio.Bounds{}, err
	}
	defer f.Close()

	if isRLE(cfg.PatternFile) {
		return patternio.LoadRLE(f, grid, cfg.OriginX, cfg.OriginY)
	}
	return patternio.LoadCells(f, grid, cfg.OriginX, cfg.OriginY)
}

func isRLE(path string) bool {
	return len(path) > 4 && path[len(path)-4:] == ".rle"
}

// driverLoop runs the canonical step -> wait -> update protocol
// (spec.md §6) once per generation, recording journal rows, publishing
// change events, drawing the changed cells to view (if rendering is
// enabled), and printing a compact terminal log line between
// generations, until cfg.Generations is reached (0 meaning indefinite).
func driverLoop(simCtx *sim.Context, cfg *config.Config, collector *metrics.Collector, j *journal.Journal, pub *publish.Publisher, apiSrv *apiserver.Server, view *render.View) error {
	generations := cfg.Generations

	for generations == 0 || simCtx.Generation < generations {
		start := time.Now()

		// Advance's own step -> wait -> update isn't used here because
		// the change count must be read after Step but before Update
		// resets the buffer; the protocol is replicated instead of
		// going through sim.Context.Advance.
		sim.Step(simCtx.Grid, simCtx.Changes, simCtx.Queue)
		simCtx.Queue.Wait()
		changeCount := simCtx.Changes.Len()
		if view != nil {
			view.DrawChanges(simCtx.Changes)
		}
		if err := sim.Update(simCtx.Grid, simCtx.Changes); err != nil {
			return fmt.Errorf("advancing generation %d: %w", simCtx.Generation, err)
		}
		simCtx.Generation++

		elapsed := time.Since(start)
		liveCells := metrics.CountLiveCells(simCtx.Grid)
		collector.SetLiveCells(liveCells)
		collector.ObserveGeneration(simCtx, changeCount, elapsed)

		if apiSrv != nil {
			apiSrv.NoteAdvance()
		}

		if j != nil {
			stat := journal.GenerationStat{
				Generation:  simCtx.Generation,
				LiveCells:   liveCells,
				BucketCount: simCtx.Grid.BucketCount(),
				ChangeCount: changeCount,
				StepMicros:  elapsed.Microseconds(),
			}
			if err := j.Record(time.Now(), stat); err != nil {
				log.GenWarnf(simCtx.Generation, "journal write failed: %v", err)
			}
		}

		if pub != nil {
			pub.PublishGeneration(simCtx.Generation, liveCells, changeCount)
		}

		log.Genf(simCtx.Generation, "live=%d buckets=%d changes=%d step=%s",
			liveCells, simCtx.Grid.BucketCount(), changeCount, elapsed)
	}

	return nil
}
