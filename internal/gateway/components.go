// ABOUTME: UI payload types for replies: buttons, select menus, modals, embeds.
// ABOUTME: Mirrors the platform's component JSON; constructors keep handler code terse.

package gateway

// Component type discriminators on the wire.
const (
	componentActionRow     = 1
	componentButton        = 2
	componentStringSelect  = 3
	componentTextInput     = 4
	componentChannelSelect = 8
)

// Button styles.
const (
	ButtonPrimary   = 1
	ButtonSecondary = 2
	ButtonSuccess   = 3
	ButtonDanger    = 4
)

// Text input styles.
const textInputShort = 1

// ActionRow groups interactive components on one row.
type ActionRow struct {
	Type       int   `json:"type"`
	Components []any `json:"components"`
}

// Row builds an action row from components.
func Row(components ...any) ActionRow {
	return ActionRow{Type: componentActionRow, Components: components}
}

// Button is a clickable component whose custom ID carries a workflow token.
type Button struct {
	Type     int    `json:"type"`
	Style    int    `json:"style"`
	Label    string `json:"label"`
	CustomID string `json:"custom_id"`
}

// NewButton builds a button.
func NewButton(style int, label, customID string) Button {
	return Button{Type: componentButton, Style: style, Label: label, CustomID: customID}
}

// SelectOption is one choice in a string select.
type SelectOption struct {
	Label       string `json:"label"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// StringSelect is a multi-select over fixed options.
type StringSelect struct {
	Type        int            `json:"type"`
	CustomID    string         `json:"custom_id"`
	Placeholder string         `json:"placeholder,omitempty"`
	MinValues   int            `json:"min_values"`
	MaxValues   int            `json:"max_values"`
	Options     []SelectOption `json:"options"`
}

// NewStringSelect builds a string select.
func NewStringSelect(customID, placeholder string, minValues, maxValues int, options []SelectOption) StringSelect {
	return StringSelect{
		Type:        componentStringSelect,
		CustomID:    customID,
		Placeholder: placeholder,
		MinValues:   minValues,
		MaxValues:   maxValues,
		Options:     options,
	}
}

// ChannelSelect lets the user pick guild channels.
type ChannelSelect struct {
	Type         int    `json:"type"`
	CustomID     string `json:"custom_id"`
	Placeholder  string `json:"placeholder,omitempty"`
	MinValues    int    `json:"min_values"`
	MaxValues    int    `json:"max_values"`
	ChannelTypes []int  `json:"channel_types,omitempty"`
}

// guild text channel
var textChannelTypes = []int{0}

// NewChannelSelect builds a channel select restricted to text channels.
func NewChannelSelect(customID, placeholder string, minValues, maxValues int) ChannelSelect {
	return ChannelSelect{
		Type:         componentChannelSelect,
		CustomID:     customID,
		Placeholder:  placeholder,
		MinValues:    minValues,
		MaxValues:    maxValues,
		ChannelTypes: textChannelTypes,
	}
}

// TextInput is a modal text field.
type TextInput struct {
	Type      int    `json:"type"`
	CustomID  string `json:"custom_id"`
	Label     string `json:"label"`
	Style     int    `json:"style"`
	Required  bool   `json:"required"`
	MaxLength int    `json:"max_length,omitempty"`
}

// NewTextInput builds a required short-form modal field.
func NewTextInput(customID, label string, maxLength int) TextInput {
	return TextInput{
		Type:      componentTextInput,
		CustomID:  customID,
		Label:     label,
		Style:     textInputShort,
		Required:  true,
		MaxLength: maxLength,
	}
}

// EmbedField is one name/value pair inside an embed.
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Embed is a rich message block. Color carries the approval state tint.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
}

// ReplyKind selects how the dispatcher's reply is delivered.
type ReplyKind int

// Reply kinds
const (
	// ReplyEphemeral sends a new message visible only to the acting user.
	ReplyEphemeral ReplyKind = iota
	// ReplyUpdate edits the message whose component was used, in place.
	ReplyUpdate
	// ReplyModal opens a modal.
	ReplyModal
)

// Reply is the single response a handler may produce for an interaction.
type Reply struct {
	Kind    ReplyKind
	Content string
	Embeds  []Embed

	// Components for ephemeral and update replies. For updates a non-nil
	// empty slice clears the message's components so no further input is
	// accepted; nil leaves them untouched.
	Components *[]ActionRow

	// Modal fields, used when Kind is ReplyModal.
	ModalCustomID string
	ModalTitle    string
	ModalInputs   []TextInput
}

// NoComponents is a non-nil empty component list: on an update reply it
// strips the message's components.
func NoComponents() *[]ActionRow {
	empty := []ActionRow{}
	return &empty
}

// Rows wraps action rows for a Reply.
func Rows(rows ...ActionRow) *[]ActionRow {
	return &rows
}
