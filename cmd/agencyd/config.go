package main

import (
	"github.com/dmitrymomot/agencykit/pkg/email"
	"github.com/dmitrymomot/agencykit/pkg/httpserver"
	"github.com/dmitrymomot/agencykit/pkg/mongo"
	"github.com/dmitrymomot/agencykit/pkg/pg"
	"github.com/dmitrymomot/agencykit/pkg/redis"
	"github.com/dmitrymomot/agencykit/svc/billing"
)

// AppConfig is everything agencyd reads from the environment.
type AppConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	// CatalogPath points at a YAML file overriding the built-in price tables.
	CatalogPath       string `env:"CATALOG_PATH"`
	InviteBaseURL     string `env:"INVITE_BASE_URL" envDefault:"http://localhost:8080/invitations/accept"`
	InviteTokenSecret string `env:"INVITE_TOKEN_SECRET,required"`

	HTTP   httpserver.Config
	Mongo  mongo.Config
	PG     pg.Config
	Redis  redis.Config
	Email  email.Config
	Paddle billing.PaddleConfig
}
