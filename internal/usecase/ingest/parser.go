package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/johnquangdev/meeting-sync/internal/domain/entities"
)

// MeetingMetadata is the normalized upstream description of a meeting
type MeetingMetadata struct {
	ExternalID  string
	RawPlatform string
	Candidate   entities.MeetingCandidate
}

// transcriptKeys are tried in order when the transcript arrives wrapped
// in an object.
var transcriptKeys = []string{"transcript", "segments", "sentences"}

// envelopeKeys wrap a whole payload in some upstream responses
var envelopeKeys = []string{"data", "meeting"}

const maxEnvelopeDepth = 2

var errUnrecognizedPayload = errors.New("payload shape not recognized")

type rawMetadata struct {
	ID             json.RawMessage `json:"id"`
	MeetingID      json.RawMessage `json:"meeting_id"`
	Title          string          `json:"title"`
	Name           string          `json:"name"`
	HostEmail      string          `json:"host_email"`
	OrganizerEmail string          `json:"organizer_email"`
	Participants   json.RawMessage `json:"participants"`
	Attendees      json.RawMessage `json:"attendees"`
	Platform       string          `json:"platform"`
	Source         string          `json:"source"`
	StartTime      json.RawMessage `json:"start_time"`
	EndTime        json.RawMessage `json:"end_time"`
	Timezone       string          `json:"timezone"`
}

// ParseMetadata decodes the meeting metadata resource
func ParseMetadata(raw []byte) (*MeetingMetadata, error) {
	raw = unwrapEnvelope(raw, 0)

	var m rawMetadata
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}

	meta := &MeetingMetadata{
		ExternalID:  firstNonEmpty(flexibleString(m.ID), flexibleString(m.MeetingID)),
		RawPlatform: firstNonEmpty(m.Platform, m.Source),
	}

	participants := parseEmails(m.Participants)
	if len(participants) == 0 {
		participants = parseEmails(m.Attendees)
	}

	meta.Candidate = entities.MeetingCandidate{
		Title:             strings.TrimSpace(firstNonEmpty(m.Title, m.Name)),
		HostEmail:         normalizeEmail(firstNonEmpty(m.HostEmail, m.OrganizerEmail)),
		ParticipantEmails: participants,
		SourcePlatform:    entities.NormalizeSourcePlatform(meta.RawPlatform),
		StartTime:         parseTime(m.StartTime),
		EndTime:           parseTime(m.EndTime),
		Timezone:          strings.TrimSpace(m.Timezone),
	}
	return meta, nil
}

type rawSegment struct {
	ID         json.RawMessage `json:"id"`
	SentenceID json.RawMessage `json:"sentence_id"`
	Speaker    json.RawMessage `json:"speaker"`
	Transcript *string         `json:"transcript"`
	Text       *string         `json:"text"`
	Timestamp  json.RawMessage `json:"timestamp"`
}

// ParseTranscript decodes any known transcript shape into ordered
// segments. Unknown shapes yield errUnrecognizedPayload and no segments.
func ParseTranscript(raw []byte) ([]entities.TranscriptSegment, error) {
	entries, ok := findArray(raw, transcriptKeys, 0)
	if !ok {
		return nil, errUnrecognizedPayload
	}

	segments := make([]entities.TranscriptSegment, 0, len(entries))
	for _, entry := range entries {
		var rs rawSegment
		if err := json.Unmarshal(entry, &rs); err != nil {
			continue
		}

		// {id, speaker, transcript, timestamp} first, then {sentence_id, speaker, text, timestamp}
		var text string
		switch {
		case rs.Transcript != nil:
			text = *rs.Transcript
		case rs.Text != nil:
			text = *rs.Text
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		segments = append(segments, entities.TranscriptSegment{
			SequenceNumber:   len(segments),
			SpeakerLabel:     speakerLabel(rs.Speaker),
			Text:             text,
			TimestampSeconds: parseOffset(rs.Timestamp),
		})
	}
	return segments, nil
}

// ParseHighlights decodes a bare array or {highlights: [...]} whose
// entries are strings or {text}/{highlight} objects.
func ParseHighlights(raw []byte) ([]string, error) {
	entries, ok := findArray(raw, []string{"highlights"}, 0)
	if !ok {
		return nil, errUnrecognizedPayload
	}

	highlights := make([]string, 0, len(entries))
	for _, entry := range entries {
		var s string
		if err := json.Unmarshal(entry, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				highlights = append(highlights, s)
			}
			continue
		}

		var obj struct {
			Text      *string `json:"text"`
			Highlight *string `json:"highlight"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil {
			continue
		}
		switch {
		case obj.Text != nil && strings.TrimSpace(*obj.Text) != "":
			highlights = append(highlights, strings.TrimSpace(*obj.Text))
		case obj.Highlight != nil && strings.TrimSpace(*obj.Highlight) != "":
			highlights = append(highlights, strings.TrimSpace(*obj.Highlight))
		}
	}
	return highlights, nil
}

// ParseSummary decodes a bare string or an object carrying the text under
// summary, text or overview.
func ParseSummary(raw []byte) (string, error) {
	return parseSummary(raw, 0)
}

func parseSummary(raw []byte, depth int) (string, error) {
	raw = bytes.TrimSpace(raw)

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), nil
	}
	if depth >= maxEnvelopeDepth {
		return "", errUnrecognizedPayload
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", errUnrecognizedPayload
	}
	for _, key := range []string{"summary", "text", "overview", "data"} {
		if v, ok := obj[key]; ok && !isNull(v) {
			if text, err := parseSummary(v, depth+1); err == nil {
				return text, nil
			}
		}
	}
	return "", errUnrecognizedPayload
}

// findArray returns the first array found at the top level or under one
// of keys, looking through envelope objects up to maxEnvelopeDepth.
func findArray(raw []byte, keys []string, depth int) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return nil, false
	}

	var arr []json.RawMessage
	if err := json.Unmarshal(raw, &arr); err == nil {
		return arr, true
	}
	if depth >= maxEnvelopeDepth {
		return nil, false
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	for _, key := range append(append([]string{}, keys...), envelopeKeys...) {
		v, ok := obj[key]
		if !ok {
			continue
		}
		if found, ok := findArray(v, keys, depth+1); ok {
			return found, true
		}
	}
	return nil, false
}

func unwrapEnvelope(raw []byte, depth int) []byte {
	if depth >= maxEnvelopeDepth {
		return raw
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}
	for _, key := range envelopeKeys {
		if v, ok := obj[key]; ok && len(bytes.TrimSpace(v)) > 0 && bytes.TrimSpace(v)[0] == '{' {
			return unwrapEnvelope(v, depth+1)
		}
	}
	return raw
}

// speakerLabel accepts "Alice", 2 or {"name": "Alice"}
func speakerLabel(raw json.RawMessage) string {
	if s := flexibleString(raw); s != "" {
		return s
	}
	var obj struct {
		Name  string `json:"name"`
		Label string `json:"label"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(firstNonEmpty(obj.Name, obj.Label, obj.Email))
	}
	return ""
}

// parseOffset reads a segment offset in seconds from a number, a numeric
// string, or a clock string such as "01:02:03.5" or "02:03".
func parseOffset(raw json.RawMessage) float64 {
	if len(raw) == 0 || isNull(raw) {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0
		}
		total = total*60 + v
	}
	return total
}

// parseTime reads RFC 3339 strings or unix seconds
func parseTime(raw json.RawMessage) *time.Time {
	if len(raw) == 0 || isNull(raw) {
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, s); err == nil {
				t = t.UTC()
				return &t
			}
		}
		if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
			t := time.Unix(secs, 0).UTC()
			return &t
		}
		return nil
	}

	var secs float64
	if err := json.Unmarshal(raw, &secs); err == nil && secs > 0 {
		t := time.Unix(int64(secs), 0).UTC()
		return &t
	}
	return nil
}

// parseEmails accepts ["a@x.com"] or [{"email": "a@x.com"}], keeping
// order and dropping duplicates.
func parseEmails(raw json.RawMessage) []string {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	seen := make(map[string]struct{}, len(entries))
	emails := make([]string, 0, len(entries))
	for _, entry := range entries {
		var email string
		if err := json.Unmarshal(entry, &email); err != nil {
			var obj struct {
				Email string `json:"email"`
			}
			if err := json.Unmarshal(entry, &obj); err != nil {
				continue
			}
			email = obj.Email
		}
		email = normalizeEmail(email)
		if email == "" {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	return emails
}

// flexibleString reads a JSON string or number as text
func flexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
