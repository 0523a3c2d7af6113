package classfinder

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/Groos-dev/class-finder/cfr"
	"github.com/Groos-dev/class-finder/utils"
)

type Options struct {
	pebble.Options

	Logger     utils.Logger
	Decompiler *cfr.Cfr

	// WarmupThreshold is the access count at which an artifact becomes a
	// hotspot and gets a thorough warmup. Minimum 1.
	WarmupThreshold uint32

	MaxConcurrentWarmups int
	WarmerPollInterval   time.Duration

	BufferBatchSize     int
	BufferFlushInterval time.Duration

	RescanInterval time.Duration

	PebbleWriteOptions *pebble.WriteOptions
}

func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = utils.NewDefaultLogger(slog.LevelInfo)
	}
	if o.WarmupThreshold == 0 {
		o.WarmupThreshold = 2
	}
	if o.MaxConcurrentWarmups <= 0 {
		o.MaxConcurrentWarmups = 2
	}
	if o.WarmerPollInterval <= 0 {
		o.WarmerPollInterval = 50 * time.Millisecond
	}
	if o.BufferBatchSize == 0 {
		o.BufferBatchSize = 100
	}
	if o.BufferBatchSize < 1 {
		o.BufferBatchSize = 1
	}
	if o.BufferFlushInterval <= 0 {
		o.BufferFlushInterval = 50 * time.Millisecond
	}
	if o.RescanInterval <= 0 {
		o.RescanInterval = 300 * time.Second
	}
	if o.PebbleWriteOptions == nil {
		o.PebbleWriteOptions = pebble.Sync
	}
}
