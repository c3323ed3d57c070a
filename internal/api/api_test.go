// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClusterCockpit/lifesim/internal/api"
	"github.com/ClusterCockpit/lifesim/internal/metrics"
	"github.com/ClusterCockpit/lifesim/internal/sim"
)

func setup(t *testing.T) (*api.Server, *sim.Context) {
	t.Helper()
	ctx := sim.NewContext(sim.Options{Workers: 1})
	t.Cleanup(ctx.Close)
	require.NoError(t, ctx.Grid.Set(1, 1, true))
	require.NoError(t, ctx.Grid.Set(2, 1, true))
	return api.New(ctx, metrics.New()), ctx
}

func TestHealthzHealthyAfterRecentAdvance(t *testing.T) {
	s, _ := setup(t)
	s.NoteAdvance()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Healthy", w.Body.String())
}

func TestStatsReportsGridState(t *testing.T) {
	s, ctx := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(ctx.Grid.BucketCount()), body["bucket_count"])
}

func TestDebugDumpListsLiveCells(t *testing.T) {
	s, _ := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/debug/dump", nil)
	s.Router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var buckets []struct {
		Ordinal   uint64      `json:"ordinal"`
		LiveCells [][2]uint16 `json:"live_cells"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &buckets))
	require.Len(t, buckets, 1)
	assert.Len(t, buckets[0].LiveCells, 2)
}

func TestMetricsEndpointServesPrometheusFormat(t *testing.T) {
	s, _ := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
