// Package backend provides the LineUp API server.

// This package contains the main application entry points under cmd/. The
// implementation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/feed: feed pagination, engagement aggregation, recommendations
// - internal/comments: threaded comment tree building
// - internal/models: data models and database schemas
// - internal/auth: authentication and authorization services
// - internal/realtime: WebSocket hub for live updates
// - internal/storage: object storage (S3) operations
// - internal/database: database connection and migrations
// - internal/cache: Redis client for rate limiting and response caching
// - internal/middleware: HTTP middleware (request ids, metrics, rate limiting)
// - internal/seed: development data seeding
package backend
