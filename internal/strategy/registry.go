package strategy

import (
	"fmt"
	"sort"
	"sync"
)

// Factory 按参数构造一个策略实例。
type Factory func(params map[string]any) (Strategy, error)

// Descriptor 描述一个已注册策略：构造器与默认优化参数网格。
type Descriptor struct {
	Factory Factory
	// Grid 是 Optimize 模式的默认参数扫描网格（可为空）。
	Grid []map[string]any
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Descriptor{}
)

// Register 在启动期登记策略。重名视为编程错误，直接 panic。
func Register(name string, desc Descriptor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("strategy %s already registered", name))
	}
	if desc.Factory == nil {
		panic(fmt.Sprintf("strategy %s registered without factory", name))
	}
	registry[name] = desc
}

// Create 按名字构造策略；未知名字返回错误，不做动态查找。
func Create(name string, params map[string]any) (Strategy, error) {
	registryMu.RLock()
	desc, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("strategy %s is not registered (available: %v)", name, Names())
	}
	return desc.Factory(params)
}

// Lookup 返回完整描述符。
func Lookup(name string) (Descriptor, error) {
	registryMu.RLock()
	desc, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return Descriptor{}, fmt.Errorf("strategy %s is not registered (available: %v)", name, Names())
	}
	return desc, nil
}

// Names 返回所有已注册策略名（排序后）。
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
