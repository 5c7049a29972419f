// Package xconf 加载 xgeoctl 的配置文件。
//
// 基于 koanf v2，支持 YAML 与 JSON。加载流程：
//
//  1. 以 [Default] 预填默认值
//  2. 用 koanf 解析文件并覆盖到结构体上（时长写成 "3s"、"5m" 这样的字符串）
//  3. 调用 [Config.Validate]，所有问题合并为一个 ErrInvalidConfig 错误返回
//
// 示例配置：
//
//	cache:
//	  capacity: 4
//	  ttl: 3s
//	  sweep_interval: 1s
//	nodes:
//	  - id: 172.217.22.14
//	    latitude: 32.0803
//	    longitude: 34.7805
//	  - id: 208.67.222.222   # 未给坐标的节点通过 resolver 在线查询
//	resolver:
//	  endpoint: https://ipapi.co
//	  timeout: 5s
//	log:
//	  level: info
package xconf
