package kafkaconsumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/avolkov/sentinel-gateway/internal/cache"
	"github.com/avolkov/sentinel-gateway/internal/cache/cellindex"
	"github.com/avolkov/sentinel-gateway/internal/core/model"
	obs "github.com/avolkov/sentinel-gateway/internal/core/observability"
	"github.com/avolkov/sentinel-gateway/internal/invalidation"
	"github.com/avolkov/sentinel-gateway/internal/provider/sentinelhub"
)

type CellMapper interface {
	CellsForBBox(bbox model.BBox, res int) ([]string, error)
}

type Consumer struct {
	cfg    Config
	logger *slog.Logger
	cache  cache.Interface
	index  cellindex.CellIndex
	mapper CellMapper
	res    int

	dedupeMu sync.Mutex
	dedupe   *lru.Cache[string, int64]
}

func New(cfg Config, logger *slog.Logger, c cache.Interface, idx cellindex.CellIndex, mapper CellMapper, res int) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.DedupeSize
	if size <= 0 {
		size = 4096
	}
	dd, _ := lru.New[string, int64](size)
	return &Consumer{
		cfg:    cfg,
		logger: logger,
		cache:  c,
		index:  idx,
		mapper: mapper,
		res:    res,
		dedupe: dd,
	}
}

// Start consumes acquisition events and drops the cached renders they
// cover. Blocks until ctx is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	if c.cache == nil || c.index == nil || c.mapper == nil {
		return errors.New("kafkaconsumer: missing dependencies (cache/index/mapper)")
	}

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_1_0_0
	cfg.Consumer.Group.Session.Timeout = c.cfg.SessionTimeout
	cfg.Consumer.Group.Heartbeat.Interval = c.cfg.Heartbeat
	cfg.Consumer.Group.Rebalance.Timeout = c.cfg.RebalanceTimeout
	if c.cfg.InitialOffsetOldest {
		cfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	}
	cfg.Consumer.Offsets.AutoCommit.Enable = true

	group, err := sarama.NewConsumerGroup(c.cfg.Brokers, c.cfg.GroupID, cfg)
	if err != nil {
		return fmt.Errorf("create consumer group: %w", err)
	}
	defer func() { _ = group.Close() }()

	handler := &groupHandler{process: c.ProcessOne}

	c.logger.Info("acquisition consumer starting",
		"brokers", c.cfg.Brokers, "topic", c.cfg.Topic, "group", c.cfg.GroupID)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("acquisition consumer shutting down")
			return nil
		default:
			if err := group.Consume(ctx, []string{c.cfg.Topic}, handler); err != nil {
				c.logger.Error("consumer error", "err", err)
				time.Sleep(2 * time.Second)
			}
		}
	}
}

// ProcessOne handles a single acquisition event message.
func (c *Consumer) ProcessOne(ctx context.Context, msg *sarama.ConsumerMessage) error {
	var ev invalidation.Event
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		obs.IncInvalidation("decode_error")
		return fmt.Errorf("json decode: %w", err)
	}
	if err := ev.Validate(); err != nil {
		obs.IncInvalidation("invalid")
		return fmt.Errorf("validate event: %w", err)
	}

	if ev.Collection != sentinelhub.Collection {
		obs.IncInvalidation("skipped")
		c.logger.Debug("event for unrelated collection (skipping)", "collection", ev.Collection)
		return nil
	}

	if !c.shouldApply(ev) {
		obs.IncInvalidation("duplicate")
		c.logger.Debug("duplicate or stale event (skipping)", "op", ev.Op, "ts", ev.TS)
		return nil
	}

	bb := model.BBox{
		MinLon: ev.BBox.MinLon, MinLat: ev.BBox.MinLat,
		MaxLon: ev.BBox.MaxLon, MaxLat: ev.BBox.MaxLat,
	}
	cells, err := c.mapper.CellsForBBox(bb, c.res)
	if err != nil {
		obs.IncInvalidation("map_error")
		return fmt.Errorf("derive cells: %w", err)
	}
	if len(cells) == 0 {
		obs.IncInvalidation("empty")
		return nil
	}

	renderKeys, err := c.index.Keys(ctx, cells)
	if err != nil {
		obs.IncInvalidation("index_error")
		return fmt.Errorf("index lookup: %w", err)
	}
	if len(renderKeys) > 0 {
		if err := c.cache.Del(ctx, renderKeys...); err != nil {
			obs.IncInvalidation("del_error")
			return fmt.Errorf("cache del: %w", err)
		}
	}
	if err := c.index.Drop(ctx, cells); err != nil {
		obs.IncInvalidation("index_error")
		return fmt.Errorf("index drop: %w", err)
	}

	obs.IncInvalidation("ok")
	c.logger.Info("invalidated cached renders",
		"op", ev.Op, "cells", len(cells), "keys", len(renderKeys))
	return nil
}

// shouldApply is a small redelivery guard: events keyed by op+bbox only
// apply when their timestamp is newer than the last one seen.
func (c *Consumer) shouldApply(ev invalidation.Event) bool {
	key := fmt.Sprintf("%s|%.6f,%.6f,%.6f,%.6f",
		ev.Op, ev.BBox.MinLon, ev.BBox.MinLat, ev.BBox.MaxLon, ev.BBox.MaxLat)
	v := ev.TS.UnixNano()

	c.dedupeMu.Lock()
	defer c.dedupeMu.Unlock()
	if last, ok := c.dedupe.Get(key); ok && v <= last {
		return false
	}
	c.dedupe.Add(key, v)
	return true
}
