// Package main is the entry point for the opsdeck server.
//
// The server hosts the airport operations shell backend: the window
// manager and app catalogue the terminal frontends talk to, the local
// operational dataset, and the replication layer that keeps that dataset
// reconciled with the shared remote store.
//
// Configuration is environment-first (see internal/infrastructure/config);
// OPSDECK_CONFIG may point at a TOML file whose keys override the
// environment.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
