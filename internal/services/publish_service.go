package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/benmeehan/imgmapon/internal/models"
	"github.com/benmeehan/imgmapon/pkg/mqtt"
	"github.com/rs/zerolog"
)

// PublishService sends finished reports to an MQTT topic.
type PublishService struct {
	Publisher mqtt.Publisher
	Topic     string
	QOS       int
	Logger    zerolog.Logger
}

func (p *PublishService) Name() string {
	return "publish"
}

// Deliver publishes the report JSON. Files are not sent over MQTT.
func (p *PublishService) Deliver(_ context.Context, report *models.Report, _ []string) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := p.Publisher.Publish(p.Topic, byte(p.QOS), false, payload); err != nil {
		return fmt.Errorf("failed to publish report: %w", err)
	}

	p.Logger.Info().
		Str("topic", p.Topic).
		Int("qos", p.QOS).
		Int("bytes", len(payload)).
		Msg("Report published")
	return nil
}
