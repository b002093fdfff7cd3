package bot

import (
	"context"
	"fmt"
	"time"

	"bodhion/internal/config"
	"bodhion/internal/engine"
	"bodhion/internal/gateway/exchange"
	"bodhion/internal/logger"
	"bodhion/internal/pkg/symbol"
	"bodhion/internal/timeframe"
)

var todateLayouts = []string{"2006-01-02T15:04:05", "2006-01-02"}

// feedPlan 是一路行情通过校验后的装配参数。
type feedPlan struct {
	label string
	req   exchange.FeedRequest
}

// planFeeds 先校验全部 datafeeds 再生成装配计划：任何一路非法都发生在
// 第一路行情被请求之前，保证全有或全无。
// 回测/优化用调用方给定的 [start, end] 有界区间（feed 级 todate 可收紧终点）；
// 实盘以 now − lookback 为回看起点做开放式流。
func planFeeds(cfg *config.Config, mode Mode, start, end, now time.Time) ([]feedPlan, error) {
	if len(cfg.DataFeeds) == 0 {
		return nil, &config.ConfigurationError{Path: "datafeeds"}
	}
	plans := make([]feedPlan, 0, len(cfg.DataFeeds))
	for i, spec := range cfg.DataFeeds {
		if err := config.Require(spec.Name, fmt.Sprintf("datafeeds[%d].name", i)); err != nil {
			return nil, err
		}
		if err := config.Require(spec.Dataname, fmt.Sprintf("datafeeds[%d].dataname", i)); err != nil {
			return nil, err
		}
		if !symbol.IsValid(spec.Dataname) {
			return nil, fmt.Errorf("datafeeds[%d].dataname %q is not a recognized trading pair", i, spec.Dataname)
		}
		unit, err := timeframe.ParseUnit(spec.Timeframe)
		if err != nil {
			return nil, fmt.Errorf("datafeeds[%d]: %w", i, err)
		}
		if spec.Compression <= 0 {
			return nil, fmt.Errorf("datafeeds[%d].compression must be > 0", i)
		}
		if spec.OHLCVLimit <= 0 {
			return nil, fmt.Errorf("datafeeds[%d].ohlcv_limit must be > 0", i)
		}

		req := exchange.FeedRequest{
			Dataname:    symbol.Normalize(spec.Dataname),
			Name:        spec.Name,
			Timeframe:   unit,
			Compression: spec.Compression,
			OHLCVLimit:  spec.OHLCVLimit,
			DropNewest:  spec.DropNewest,
			Debug:       cfg.Debug,
		}
		switch mode {
		case ModeRun:
			lookback, err := timeframe.Lookback(unit, spec.Compression, spec.OHLCVLimit)
			if err != nil {
				return nil, fmt.Errorf("datafeeds[%d]: %w", i, err)
			}
			req.Historical = false
			req.FromDate = now.Add(-lookback)
		default:
			feedEnd := end
			if spec.ToDate != "" {
				parsed, err := parseToDate(spec.ToDate)
				if err != nil {
					return nil, fmt.Errorf("datafeeds[%d].todate: %w", i, err)
				}
				feedEnd = parsed
			}
			req.Historical = true
			req.FromDate = start
			req.ToDate = &feedEnd
		}
		plans = append(plans, feedPlan{label: spec.Name, req: req})
	}
	return plans, nil
}

func parseToDate(raw string) (time.Time, error) {
	for _, layout := range todateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// provisionFeeds 按声明顺序把行情挂载到引擎。任何一路失败立即中止，
// 已挂载的行情随会话一起废弃。
func provisionFeeds(ctx context.Context, plans []feedPlan, store exchange.Store, eng engine.Engine, sess *Session) error {
	for _, plan := range plans {
		feed, err := store.GetData(ctx, plan.req)
		if err != nil {
			return &ProvisioningError{Feed: plan.label, Err: err}
		}
		eng.AddData(feed)
		sess.Feeds = append(sess.Feeds, feed)
		logger.Infof("[bot] 行情已挂载 %s (%s)", plan.label, plan.req.Dataname)
	}
	return nil
}
