package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/registrar/internal/config"
	"github.com/Nixie-Tech-LLC/registrar/internal/events"
	"github.com/Nixie-Tech-LLC/registrar/internal/flash"
	"github.com/Nixie-Tech-LLC/registrar/internal/redis"
)

// InitFlashStore selects and returns the configured flash backend.
// The returned func releases the backend's connections.
func InitFlashStore(ctx context.Context, cfg *config.Config) (flash.Store, func()) {
	if cfg.Redis.Address != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Address, cfg.Redis.Username, cfg.Redis.Password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize redis flash store")
		}
		log.Info().Str("address", cfg.Redis.Address).Msg("using redis flash store")
		return flash.NewRedisStore(rdb, cfg.Redis.FlashTTL), func() { _ = rdb.Close() }
	}

	if cfg.IsProduction() {
		log.Warn().Msg("REDIS_ADDRESS not set; flash messages are kept in process memory")
	}
	return flash.NewMemoryStore(), func() {}
}

// InitPublisher returns an MQTT publisher, or a no-op one when no broker is set.
func InitPublisher(cfg *config.Config) events.Publisher {
	if cfg.MQTT.BrokerURL == "" {
		log.Info().Msg("MQTT_BROKER_URL not set; registration events are not published")
		return events.NopPublisher{}
	}

	pub, err := events.NewMQTTPublisher(cfg.MQTT.BrokerURL, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize MQTT publisher")
	}
	log.Info().Str("broker", cfg.MQTT.BrokerURL).Msg("publishing registration events over MQTT")
	return pub
}
