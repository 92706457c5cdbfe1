// Package app 提供 rackup 默认配置使用的示例处理器（Format、Api、App），
// 通过 "app" 来源登记到默认 Catalog，演示中间件链的组装方式。
package app
