package all

// 统一导入所有内置策略以触发 init() 注册，入口只需导入这一处。

import (
	_ "bodhion/internal/strategy/sma"
)
