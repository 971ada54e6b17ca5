// Package config loads, validates, and normalizes fieldwork configuration.
//
// Configuration is TOML with sections per subsystem: [paths] for data and
// log directories, [storage] for the packet store backend selection,
// [sync] for the upload destination and drain cadence, [verification] for
// the simulated location provider and sampling interval, [device] for the
// static device snapshot, and [logging] for output shape.
//
// Load resolves ~/.config/fieldwork/config.toml first, then a project-local
// fieldwork.toml, applies defaults for missing values, expands ~ in paths,
// and validates the result.
package config
