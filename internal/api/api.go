// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes a small HTTP debug/observer surface over a
// running simulation: liveness, a JSON snapshot of live cells, a
// Prometheus scrape endpoint and current generation statistics.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ClusterCockpit/lifesim/internal/metrics"
	"github.com/ClusterCockpit/lifesim/internal/sim"
	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

func errUnhealthy(age time.Duration) error {
	return fmt.Errorf("no generation completed in the last %s (threshold %s)", age, MaxGenerationAge)
}

// MaxGenerationAge is how long /healthz tolerates no completed
// generation before reporting unhealthy, mirroring
// internal/memorystore/healthcheck.go's staleness-threshold model.
const MaxGenerationAge = 30 * time.Second

// ErrorResponse is the JSON body written for any handler error, the
// same shape as internal/api's ErrorResponse in the teacher.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func handleError(err error, statusCode int, rw http.ResponseWriter) {
	log.Warnf("api: %s", err.Error())
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	json.NewEncoder(rw).Encode(ErrorResponse{
		Status: http.StatusText(statusCode),
		Error:  err.Error(),
	})
}

// Server wires a router around a running Context. The caller (normally
// the driver loop) must call NoteAdvance after every successful
// generation; the time it records is what /healthz's staleness check
// reads.
type Server struct {
	ctx       *sim.Context
	collector *metrics.Collector

	mu          sync.Mutex
	lastAdvance time.Time
}

// New returns a Server over ctx; Router builds its routes. collector may
// be nil, in which case /metrics responds 404.
func New(ctx *sim.Context, collector *metrics.Collector) *Server {
	s := &Server{ctx: ctx, collector: collector, lastAdvance: time.Now()}
	return s
}

// NoteAdvance records that a generation just completed, for /healthz.
func (s *Server) NoteAdvance() {
	s.mu.Lock()
	s.lastAdvance = time.Now()
	s.mu.Unlock()
}

// Router returns the mux.Router exposing this Server's endpoints.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/debug/dump", s.handleDebugDump).Methods(http.MethodGet)
	if s.collector != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.collector.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

func (s *Server) handleHealthz(rw http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	age := time.Since(s.lastAdvance)
	s.mu.Unlock()

	if age > MaxGenerationAge {
		handleError(errUnhealthy(age), http.StatusServiceUnavailable, rw)
		return
	}
	rw.Header().Set("Content-Type", "text/plain")
	rw.Write([]byte("Healthy"))
}

// statsResponse is the /stats JSON body shape, grounded on the
// teacher's plain JSON response style for node/job summaries.
type statsResponse struct {
	Generation   uint64 `json:"generation"`
	LiveCells    int    `json:"live_cells"`
	BucketCount  int    `json:"bucket_count"`
	ChangeCount  int    `json:"pending_change_count"`
}

func (s *Server) handleStats(rw http.ResponseWriter, r *http.Request) {
	resp := statsResponse{
		Generation:  s.ctx.Generation,
		LiveCells:   metrics.CountLiveCells(s.ctx.Grid),
		BucketCount: s.ctx.Grid.BucketCount(),
		ChangeCount: s.ctx.Changes.Len(),
	}
	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(resp)
}

// debugBucket is one bucket's entry in the /debug/dump JSON array,
// grounded on internal/memorystore/debug.go's depth-first dump writer
// (here flattened to one array, since the grid has no named-level
// hierarchy to nest under).
type debugBucket struct {
	BX, BY  uint16 `json:"bx,omitempty"`
	Ordinal uint64 `json:"ordinal"`
	Cells   [][2]uint16 `json:"live_cells"`
}

func (s *Server) handleDebugDump(rw http.ResponseWriter, r *http.Request) {
	var out []debugBucket
	s.ctx.Grid.ForEachLeaf(func(leaf *sim.LeafView) {
		leaf.Buckets(func(b *sim.Bucket) {
			entry := debugBucket{BX: b.BX, BY: b.BY, Ordinal: b.Ordinal}
			xp, yp := b.BX*sim.BucketSide, b.BY*sim.BucketSide
			for iy := sim.Coordinate(0); iy < sim.BucketSide; iy++ {
				for ix := sim.Coordinate(0); ix < sim.BucketSide; ix++ {
					if s.ctx.Grid.Get(xp+ix, yp+iy) {
						entry.Cells = append(entry.Cells, [2]uint16{xp + ix, yp + iy})
					}
				}
			}
			out = append(out, entry)
		})
	})

	rw.Header().Set("Content-Type", "application/json")
	json.NewEncoder(rw).Encode(out)
}
