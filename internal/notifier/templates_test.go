package notifier

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

func int64p(v int64) *int64 { return &v }

func TestBuildPayloadFieldOrder(t *testing.T) {
	meta := models.EventMetadata{
		CPU:          int64p(150),
		Disk:         int64p(5120),
		RAM:          int64p(2048),
		Coins:        int64p(100),
		ResourceName: "survival",
		ResourceID:   "12",
		Username:     "steve",
		UserID:       "42",
		Fields: []models.EventField{
			{Name: "Plan", Value: "Pro"},
			{Name: "Node", Value: "eu-1", Inline: true},
		},
	}

	p := BuildPayload("Helium", models.EventResourceCreated, meta, time.Now())
	require.Len(t, p.Embeds, 1)

	var names []string
	for _, f := range p.Embeds[0].Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"User ID", "Username", "Server ID", "Server Name", "Coins", "RAM", "Disk", "CPU", "Plan", "Node"}, names)

	fields := p.Embeds[0].Fields
	assert.Equal(t, "2048 MB", fields[5].Value)
	assert.Equal(t, "150%", fields[7].Value)
	assert.False(t, fields[8].Inline)
	assert.True(t, fields[9].Inline)
}

func TestBuildPayloadTemplates(t *testing.T) {
	testCases := []struct {
		name      string
		eventType models.EventType
		wantTitle string
	}{
		{name: "known", eventType: models.EventResourceSuspended, wantTitle: "Server Suspended"},
		{name: "coins", eventType: models.EventCoinsRemoved, wantTitle: "Coins Removed"},
		{name: "unknown falls back", eventType: models.EventType("plan.changed"), wantTitle: genericTemplate.Title},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := BuildPayload("Helium", tc.eventType, models.EventMetadata{}, time.Now())
			assert.Equal(t, tc.wantTitle, p.Embeds[0].Title)
			assert.NotEmpty(t, p.Embeds[0].Description)
			assert.NotZero(t, p.Embeds[0].Color)
			assert.Empty(t, p.Embeds[0].Fields)
		})
	}
}

func TestPayloadWireShape(t *testing.T) {
	p := BuildPayload("Helium", models.EventCoinsAdded, models.EventMetadata{UserID: "1"}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Helium", raw["username"])

	embed := raw["embeds"].([]any)[0].(map[string]any)
	for _, key := range []string{"title", "description", "color", "timestamp", "fields", "footer"} {
		assert.Contains(t, embed, key)
	}
	assert.Equal(t, "2026-01-01T00:00:00Z", embed["timestamp"])
}
