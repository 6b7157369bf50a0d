// Package config 提供 DocChat 的配置管理功能。
//
// 支持从 YAML 文件与 DOCCHAT_ 前缀环境变量加载配置,
// 优先级为 默认值 → 文件 → 环境变量,并提供加载后校验。
package config
