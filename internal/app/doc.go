// Package app composes the block system into a running application.
//
// The layering follows a simple rule: domain packages hold pure data
// structures, services hold the behaviour, and this package wires them to
// storage and manages their lifecycle.
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Pure data structures
//	│   ├── block/          # Block definitions, configs, dashboard layout
//	│   ├── page/           # Storefront pages
//	│   └── stats/          # Store metrics resolved into dashboard blocks
//	├── registry/           # Block type registries (dashboard, storefront)
//	├── blocks/             # Built-in block implementations
//	├── render/             # Block list renderer with per-block isolation
//	├── editor/             # Interactive block list editing core
//	├── services/           # layouts, pages, sessions
//	├── storage/            # Store interfaces, memory and postgres backends
//	├── httpapi/            # Admin REST API
//	├── metrics/            # Prometheus collectors
//	└── system/             # Lifecycle manager for background services
//
// Services receive their stores through interfaces defined in storage;
// cmd/server decides whether those are the in-memory or postgres
// implementations.
package app
