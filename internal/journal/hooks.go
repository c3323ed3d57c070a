// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package journal

import (
	"context"
	"time"

	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

// hooks satisfies the sqlhooks.Hooks interface.
type hooks struct{}

// Before hook will print the query with it's args and return the context with the timestamp
func (h *hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	log.Debugf("SQL query %s %q", query, args)
	return context.WithValue(ctx, "begin", time.Now()), nil
}

// After hook will get the timestamp registered on the Before hook and print the elapsed time
func (h *hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin := ctx.Value("begin").(time.Time)
	log.Debugf("journal: query took %s", time.Since(begin))
	return ctx, nil
}
