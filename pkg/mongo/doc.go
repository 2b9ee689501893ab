// Package mongo opens MongoDB connections from environment configuration.
//
// New retries the initial connect and ping, so the service survives the
// database starting a few seconds later than the application. Repositories in
// svc/ receive a *mongo.Database from NewDatabase and own their collections
// and indexes.
package mongo
