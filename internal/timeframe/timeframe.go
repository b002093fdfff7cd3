package timeframe

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Unit 表示 K 线聚合周期单位。
type Unit int

const (
	Seconds Unit = iota + 1
	Minutes
	Days
	Weeks
	Months
	Years
)

// scaleSeconds 是封闭的周期换算表，统一以秒为基准。
// Months/Years 取惯例值 30 天 / 365 天。
var scaleSeconds = map[Unit]int64{
	Seconds: 1,
	Minutes: 60,
	Days:    86400,
	Weeks:   7 * 86400,
	Months:  30 * 86400,
	Years:   365 * 86400,
}

var unitNames = map[Unit]string{
	Seconds: "Seconds",
	Minutes: "Minutes",
	Days:    "Days",
	Weeks:   "Weeks",
	Months:  "Months",
	Years:   "Years",
}

// UnknownUnitError 表示配置里出现了换算表之外的周期单位。
type UnknownUnitError struct {
	Name string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown timeframe: %s (supported: %s)", e.Name, strings.Join(SupportedUnits(), ", "))
}

func (u Unit) String() string {
	if name, ok := unitNames[u]; ok {
		return name
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Valid 判断 unit 是否在换算表内。
func (u Unit) Valid() bool {
	_, ok := scaleSeconds[u]
	return ok
}

// ParseUnit 将配置字符串解析为 Unit，大小写不敏感；未知名称返回 UnknownUnitError。
func ParseUnit(name string) (Unit, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for u, n := range unitNames {
		if strings.ToLower(n) == key {
			return u, nil
		}
	}
	return 0, &UnknownUnitError{Name: name}
}

// SupportedUnits 返回所有支持的单位名（排序后）。
func SupportedUnits() []string {
	names := make([]string, 0, len(unitNames))
	for _, n := range unitNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookback 根据 (unit, compression, limit) 计算回看窗口：
// compression * scale[unit] * limit 秒。实时行情的起点 = now - Lookback。
func Lookback(u Unit, compression, limit int) (time.Duration, error) {
	scale, ok := scaleSeconds[u]
	if !ok {
		return 0, &UnknownUnitError{Name: u.String()}
	}
	if compression <= 0 {
		return 0, fmt.Errorf("compression must be > 0, got %d", compression)
	}
	if limit <= 0 {
		return 0, fmt.Errorf("ohlcv_limit must be > 0, got %d", limit)
	}
	return time.Duration(int64(compression)*scale*int64(limit)) * time.Second, nil
}

// BarDuration 返回单根 K 线覆盖的时长（compression * scale[unit]）。
func BarDuration(u Unit, compression int) (time.Duration, error) {
	scale, ok := scaleSeconds[u]
	if !ok {
		return 0, &UnknownUnitError{Name: u.String()}
	}
	if compression <= 0 {
		return 0, fmt.Errorf("compression must be > 0, got %d", compression)
	}
	return time.Duration(int64(compression)*scale) * time.Second, nil
}

// SourceInterval 将 (unit, compression) 映射为交易所风格的 interval 字符串（如 "5m"、"1d"）。
func SourceInterval(u Unit, compression int) (string, error) {
	if compression <= 0 {
		compression = 1
	}
	switch u {
	case Seconds:
		return fmt.Sprintf("%ds", compression), nil
	case Minutes:
		return fmt.Sprintf("%dm", compression), nil
	case Days:
		return fmt.Sprintf("%dd", compression), nil
	case Weeks:
		return fmt.Sprintf("%dw", compression), nil
	case Months:
		return fmt.Sprintf("%dM", compression), nil
	case Years:
		// 交易所通常没有年线，退化为以天计。
		return fmt.Sprintf("%dd", compression*365), nil
	default:
		return "", &UnknownUnitError{Name: u.String()}
	}
}
