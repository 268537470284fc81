package services

import (
	"context"
	"fmt"

	"github.com/benmeehan/imgmapon/internal/utils"
	"github.com/benmeehan/imgmapon/pkg/cache"
	"github.com/benmeehan/imgmapon/pkg/file"
	"github.com/benmeehan/imgmapon/pkg/mqtt"
	"github.com/benmeehan/imgmapon/pkg/s3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// OpenCache returns the configured provider cache, or nil when caching is off.
func OpenCache(config *utils.Config) (cache.Cache, error) {
	if !config.Cache.Enabled {
		return nil, nil
	}

	switch config.Cache.Backend {
	case "valkey":
		v := config.Cache.Valkey
		store, err := cache.NewValkey(v.Address, v.Password, v.DB, v.Prefix)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return cache.NewMemory(), nil
	}
}

// BuildSinks connects the report sinks enabled in config. The returned
// function releases their connections.
func BuildSinks(ctx context.Context, config *utils.Config, fileClient file.FileOperations, logger zerolog.Logger) ([]ReportSink, func(), error) {
	var (
		sinks    []ReportSink
		closers  []func()
		closeAll = func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	)

	if config.Publish.Enabled {
		mqttClient := mqtt.NewMqttService(fileClient)
		clientID := config.Publish.ClientID + "-" + uuid.New().String()
		logger.Info().Str("client_id", clientID).Str("broker", config.Publish.Broker).Msg("Connecting to MQTT broker")

		err := mqttClient.Initialize(mqtt.Options{
			Broker:     config.Publish.Broker,
			ClientID:   clientID,
			Username:   config.Publish.Username,
			Password:   config.Publish.Password,
			CACertPath: config.Publish.CACertificate,
			Timeout:    config.Publish.Timeout,
		})
		if err != nil {
			return nil, func() {}, fmt.Errorf("failed to initialize MQTT connection: %w", err)
		}
		closers = append(closers, func() { mqttClient.Disconnect(250) })
		sinks = append(sinks, &PublishService{
			Publisher: mqttClient,
			Topic:     config.Publish.Topic,
			QOS:       config.Publish.QOS,
			Logger:    logger,
		})
	}

	if config.Archive.Enabled {
		storage := s3.NewObjectStorage(config.Archive.Region, config.Archive.PresignExpiry)
		err := storage.Connect(ctx, config.Archive.Endpoint, config.Archive.AccessKeyID, config.Archive.SecretAccessKey, config.Archive.UseSSL)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to connect to object storage: %w", err)
		}
		sinks = append(sinks, &ArchiveService{
			Storage: storage,
			Bucket:  config.Archive.Bucket,
			Prefix:  config.Archive.Prefix,
			Logger:  logger,
		})
	}

	return sinks, closeAll, nil
}
