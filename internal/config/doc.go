// Emberforge - Event-Driven Idle RPG Game Backend
// Copyright 2026 Solaireshen97
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Solaireshen97/emberforge

// Package config loads and validates the server configuration.
//
// Configuration is layered with koanf, last writer wins:
//
//  1. Built-in defaults (defaultConfig).
//  2. An optional YAML file: config.yaml / config.yml in the working
//     directory, /etc/emberforge/, or the file named by CONFIG_PATH.
//  3. Environment variables, mapped through an explicit table
//     (HTTP_PORT, FRAME_INTERVAL, OFFLINE_MAX_TIME, NATS_ENABLED,
//     DUCKDB_PATH, LOG_LEVEL, ...). Variables not in the table are
//     ignored.
//
// The loaded Config is immutable and safe for concurrent reads. main
// translates sections into the option structs the individual packages
// take, so those packages stay free of config imports.
package config
