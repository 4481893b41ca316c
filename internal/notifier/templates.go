package notifier

import (
	"strconv"
	"time"

	"github.com/Xreatlabs/Helium-sub000/internal/models"
)

type eventTemplate struct {
	Title       string
	Description string
	Color       int
}

var eventTemplates = map[models.EventType]eventTemplate{
	models.EventResourceCreated:     {"Server Created", "A new server has been created.", 0x57F287},
	models.EventResourceDeleted:     {"Server Deleted", "A server has been deleted.", 0xED4245},
	models.EventResourceSuspended:   {"Server Suspended", "A server has been suspended after its renewal lapsed.", 0xFEE75C},
	models.EventResourceUnsuspended: {"Server Unsuspended", "A server has been unsuspended.", 0x57F287},
	models.EventResourceRenewed:     {"Server Renewed", "A server has been renewed.", 0x5865F2},
	models.EventAutoRenewDisabled:   {"Auto-Renew Disabled", "Auto-renew was turned off because the balance could not cover the renewal.", 0xE67E22},
	models.EventCoinsAdded:          {"Coins Added", "Coins have been added to a user.", 0xF1C40F},
	models.EventCoinsRemoved:        {"Coins Removed", "Coins have been removed from a user.", 0x992D22},
}

var genericTemplate = eventTemplate{
	Title:       "Helium Event",
	Description: "An event occurred.",
	Color:       0x99AAB5,
}

func templateFor(eventType models.EventType) eventTemplate {
	if t, ok := eventTemplates[eventType]; ok {
		return t
	}
	return genericTemplate
}

// Payload is the Discord webhook message body.
type Payload struct {
	Username string  `json:"username"`
	Embeds   []Embed `json:"embeds"`
}

type Embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
}

type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type EmbedFooter struct {
	Text string `json:"text"`
}

// BuildPayload renders an event as a single embed. Metadata fields appear in a
// fixed order followed by the caller's custom fields.
func BuildPayload(username string, eventType models.EventType, meta models.EventMetadata, now time.Time) Payload {
	tmpl := templateFor(eventType)

	return Payload{
		Username: username,
		Embeds: []Embed{{
			Title:       tmpl.Title,
			Description: tmpl.Description,
			Color:       tmpl.Color,
			Timestamp:   now.UTC().Format(time.RFC3339),
			Fields:      buildFields(meta),
			Footer:      &EmbedFooter{Text: string(eventType)},
		}},
	}
}

func buildFields(meta models.EventMetadata) []EmbedField {
	var fields []EmbedField
	addText := func(name, value string) {
		if value != "" {
			fields = append(fields, EmbedField{Name: name, Value: value, Inline: true})
		}
	}
	addNumber := func(name string, value *int64, unit string) {
		if value != nil {
			fields = append(fields, EmbedField{Name: name, Value: strconv.FormatInt(*value, 10) + unit, Inline: true})
		}
	}

	addText("User ID", meta.UserID)
	addText("Username", meta.Username)
	addText("Server ID", meta.ResourceID)
	addText("Server Name", meta.ResourceName)
	addNumber("Coins", meta.Coins, "")
	addNumber("RAM", meta.RAM, " MB")
	addNumber("Disk", meta.Disk, " MB")
	addNumber("CPU", meta.CPU, "%")

	for _, f := range meta.Fields {
		fields = append(fields, EmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return fields
}
