// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of lifesim.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package publish optionally announces completed generations on a NATS
// subject, so external observers (a renderer, a second simulation, a
// dashboard) can follow a running simulation without polling the HTTP
// API. Publishing is best-effort: a down or unreachable NATS server
// never blocks or fails a generation's Advance.
package publish

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	log "github.com/ClusterCockpit/lifesim/pkg/log"
)

// Config configures the optional NATS publisher, mirroring
// pkg/nats/config.go's NatsConfig shape (address/username/password/
// creds file), narrowed to what this package needs.
type Config struct {
	Address       string `json:"address"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	CredsFilePath string `json:"creds_file_path,omitempty"`
	Subject       string `json:"subject"`
}

// Enabled reports whether this config names a server to publish to.
func (c Config) Enabled() bool {
	return c.Address != ""
}

// Event is the JSON payload published after each generation.
type Event struct {
	Generation  uint64 `json:"generation"`
	LiveCells   int    `json:"live_cells"`
	ChangeCount int    `json:"change_count"`
}

// Publisher wraps a NATS connection used to fire-and-forget Events.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials the NATS server named by cfg. Connect must not be
// called when cfg is not Enabled(); callers should skip publishing
// entirely in that case rather than constructing a no-op Publisher.
func Connect(cfg Config) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("publish: config has no address")
	}

	var opts []nats.Option
	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}
	if cfg.CredsFilePath != "" {
		opts = append(opts, nats.UserCredentials(cfg.CredsFilePath))
	}
	opts = append(opts, nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
		if err != nil {
			log.Warnf("publish: disconnected: %v", err)
		}
	}))
	opts = append(opts, nats.ReconnectHandler(func(nc *nats.Conn) {
		log.Infof("publish: reconnected to %s", nc.ConnectedUrl())
	}))

	nc, err := nats.Connect(cfg.Address, opts...)
	if err != nil {
		return nil, fmt.Errorf("publish: connect: %w", err)
	}

	log.Infof("publish: connected to %s, subject %q", cfg.Address, cfg.Subject)
	return &Publisher{conn: nc, subject: cfg.Subject}, nil
}

// PublishGeneration encodes and sends an Event for the given
// generation. Errors are logged and swallowed: a publish failure must
// never interrupt the simulation's own step/update loop.
func (p *Publisher) PublishGeneration(generation uint64, liveCells, changeCount int) {
	data, err := json.Marshal(Event{Generation: generation, LiveCells: liveCells, ChangeCount: changeCount})
	if err != nil {
		log.Warnf("publish: encode event for generation %d: %v", generation, err)
		return
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		log.Warnf("publish: generation %d: %v", generation, err)
	}
}

// Close flushes and closes the underlying NATS connection.
func (p *Publisher) Close() {
	if p.conn == nil {
		return
	}
	if err := p.conn.Flush(); err != nil {
		log.Warnf("publish: flush on close: %v", err)
	}
	p.conn.Close()
}
