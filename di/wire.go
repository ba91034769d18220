//go:build wireinject
// +build wireinject

package di

import (
	"berth/config"
	"berth/infras/kafka"
	"berth/infras/otel"
	"berth/infras/postgres"
	"berth/infras/redis"
	"berth/infras/s3"
	"berth/infras/scheduler"
	"berth/permissions"
	"berth/shared/cache"
	"berth/transport/http"
	"berth/transport/http/middleware"
	"berth/transport/http/router"

	catalogRepository "berth/internal/domains/catalog/repository"
	reservationRepository "berth/internal/domains/reservation/repository"
	reservationService "berth/internal/domains/reservation/service"
	waitlistRepository "berth/internal/domains/waitlist/repository"
	waitlistService "berth/internal/domains/waitlist/service"

	healthHandler "berth/internal/handlers/health"
	reservationHandler "berth/internal/handlers/reservation"
	waitlistHandler "berth/internal/handlers/waitlist"
	webhookHandler "berth/internal/handlers/webhook"

	"github.com/google/wire"
)

var configurations = wire.NewSet(
	config.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	kafka.New,
	s3.New,
	scheduler.New,
)

var middlewares = wire.NewSet(
	permissions.Get,
	middleware.NewAppMiddleware,
	middleware.NewIdentityRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var catalogDomain = wire.NewSet(
	catalogRepository.New,
)

var reservationDomain = wire.NewSet(
	reservationRepository.New,
	reservationService.New,
)

var waitlistDomain = wire.NewSet(
	waitlistRepository.New,
	waitlistService.New,
)

var domains = wire.NewSet(
	catalogDomain,
	reservationDomain,
	waitlistDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	healthHandler.New,
	reservationHandler.New,
	waitlistHandler.New,
	webhookHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
