package kafka

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/coral-bleaching-map/internal/config"
	"github.com/couchcryptid/coral-bleaching-map/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	m := domain.Marker{
		ID:            "reef-0011223344556677",
		Position:      orb.Point{-157.792, 21.456},
		Color:         domain.BandSevere,
		Size:          domain.SizeLarge,
		LiveCoral:     "72",
		PaleCoral:     "30",
		BleachedCoral: "50",
		PaleBleachSum: "80",
		Popup:         "liveCoral:72\npaleCoral:30\nbleachedCoral:50\npaleBleachSum:80",
	}

	msg, err := serializeToMessage(m)
	require.NoError(t, err)

	assert.Equal(t, []byte("reef-0011223344556677"), msg.Key)
	assert.JSONEq(t, `{
		"id": "reef-0011223344556677",
		"position": [-157.792, 21.456],
		"color_band": "band4",
		"color": "#FFF3DA",
		"size": "large",
		"live_coral": "72",
		"pale_coral": "30",
		"bleached_coral": "50",
		"pale_bleach_sum": "80",
		"popup": "liveCoral:72\npaleCoral:30\nbleachedCoral:50\npaleBleachSum:80"
	}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "color_band", msg.Headers[0].Key)
	assert.Equal(t, []byte("band4"), msg.Headers[0].Value)
	assert.Equal(t, "size", msg.Headers[1].Key)
	assert.Equal(t, []byte("large"), msg.Headers[1].Value)
}

func TestMarkerWriter_EmptyBatchIsNoop(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"127.0.0.1:1"}, KafkaMarkerTopic: "coral-markers"}
	w := NewMarkerWriter(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = w.Close() })

	assert.NoError(t, w.LoadBatch(context.Background(), nil))
}
