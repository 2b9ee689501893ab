// Package redis connects to Redis with retry and exposes a ping health check.
// The client backs the distributed quota admission lock in svc/quota.
package redis
