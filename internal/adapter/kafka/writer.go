// Package kafka publishes classified markers to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/coral-bleaching-map/internal/config"
	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

// MarkerWriter produces marker messages to a Kafka topic.
// It implements pipeline.MarkerLoader.
type MarkerWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewMarkerWriter creates a Kafka producer for the configured marker topic.
func NewMarkerWriter(cfg *config.Config, logger *slog.Logger) *MarkerWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaMarkerTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &MarkerWriter{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the markers in a single WriteMessages
// call. Marker IDs are stable, so a reload republishes under the same keys.
func (w *MarkerWriter) LoadBatch(ctx context.Context, markers []domain.Marker) error {
	if len(markers) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(markers))
	for i := range markers {
		msg, err := serializeToMessage(markers[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish markers: %w", err)
	}
	w.logger.Info("markers published", "topic", w.writer.Topic, "count", len(msgs))
	return nil
}

func (w *MarkerWriter) Close() error {
	return w.writer.Close()
}

// markerMessage is the wire form of a marker. Position is [lon, lat].
type markerMessage struct {
	ID            string     `json:"id"`
	Position      [2]float64 `json:"position"`
	ColorBand     string     `json:"color_band"`
	Color         string     `json:"color"`
	Size          string     `json:"size"`
	LiveCoral     string     `json:"live_coral"`
	PaleCoral     string     `json:"pale_coral"`
	BleachedCoral string     `json:"bleached_coral"`
	PaleBleachSum string     `json:"pale_bleach_sum"`
	Popup         string     `json:"popup"`
}

// serializeToMessage marshals a Marker into a Kafka message.
func serializeToMessage(m domain.Marker) (kafkago.Message, error) {
	data, err := json.Marshal(markerMessage{
		ID:            m.ID,
		Position:      [2]float64{m.Position.Lon(), m.Position.Lat()},
		ColorBand:     m.Color.String(),
		Color:         m.Color.Color(),
		Size:          string(m.Size),
		LiveCoral:     m.LiveCoral,
		PaleCoral:     m.PaleCoral,
		BleachedCoral: m.BleachedCoral,
		PaleBleachSum: m.PaleBleachSum,
		Popup:         m.Popup,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(m.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "color_band", Value: []byte(m.Color.String())},
			{Key: "size", Value: []byte(m.Size)},
		},
	}, nil
}
