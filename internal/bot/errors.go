package bot

import "fmt"

// ProvisioningError 标注哪一路行情装配失败。装配是全有或全无的：
// 任何一路失败，整个会话不挂载任何行情。
type ProvisioningError struct {
	Feed string
	Err  error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision datafeed %s: %v", e.Feed, e.Err)
}

func (e *ProvisioningError) Unwrap() error { return e.Err }
