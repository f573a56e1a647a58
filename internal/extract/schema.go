package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// JobListing is one posting as the model reports it.
type JobListing struct {
	Title        string `json:"title" jsonschema_description:"Job title exactly as shown"`
	Location     string `json:"location,omitempty" jsonschema_description:"City, country or region of the role"`
	JobType      string `json:"job_type,omitempty" jsonschema_description:"full-time, part-time, contract or internship"`
	LocationType string `json:"location_type,omitempty" jsonschema_description:"remote, onsite or hybrid"`
	ApplyURL     string `json:"apply_url,omitempty" jsonschema_description:"Absolute URL of the posting or application form"`
	Description  string `json:"description,omitempty" jsonschema_description:"Short summary of the role"`
}

type jobList struct {
	Jobs []JobListing `json:"jobs" jsonschema_description:"Every job posting on the page"`
}

type jobDescription struct {
	Description string `json:"description" jsonschema_description:"Full job description as plain text"`
}

// JobListSchema is the response schema for careers pages.
func JobListSchema() *jsonschema.Definition {
	return mustSchema(jobList{})
}

// DescriptionSchema is the response schema for a single posting page.
func DescriptionSchema() *jsonschema.Definition {
	return mustSchema(jobDescription{})
}

func mustSchema(v any) *jsonschema.Definition {
	schema, err := jsonschema.GenerateSchemaForType(v)
	if err != nil {
		panic(err)
	}
	return schema
}

// ParseJobListings accepts a JSON array of listings, an object with a "jobs"
// array, or a single listing object. Each listing is decoded on its own: a
// field of the wrong type is treated as absent, and a listing without a title
// is dropped. Anything else yields nothing.
func ParseJobListings(raw []byte) []JobListing {
	raw = trimFences(raw)
	if len(raw) == 0 {
		return nil
	}

	var elems []json.RawMessage
	switch raw[0] {
	case '[':
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil
		}
	case '{':
		var wrapped struct {
			Jobs json.RawMessage `json:"jobs"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped.Jobs) > 0 {
			return ParseJobListings(wrapped.Jobs)
		}
		elems = []json.RawMessage{raw}
	default:
		return nil
	}

	var out []JobListing
	for _, elem := range elems {
		l, ok := decodeListing(elem)
		if ok {
			out = append(out, l)
		}
	}
	return out
}

// decodeListing reads one listing field by field so a mistyped field only
// loses itself.
func decodeListing(raw json.RawMessage) (JobListing, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return JobListing{}, false
	}

	l := JobListing{
		Title:        stringField(fields, "title"),
		Location:     stringField(fields, "location"),
		JobType:      stringField(fields, "job_type"),
		LocationType: stringField(fields, "location_type"),
		ApplyURL:     stringField(fields, "apply_url"),
		Description:  stringField(fields, "description"),
	}
	if strings.TrimSpace(l.Title) == "" {
		return JobListing{}, false
	}
	return l, true
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ParseDescription returns the description from a description-schema
// response. A list response uses its first element.
func ParseDescription(raw []byte) string {
	raw = trimFences(raw)
	if len(raw) == 0 {
		return ""
	}

	var d jobDescription
	switch raw[0] {
	case '[':
		var list []jobDescription
		if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
			return ""
		}
		d = list[0]
	case '{':
		if err := json.Unmarshal(raw, &d); err != nil {
			return ""
		}
	}
	return strings.TrimSpace(d.Description)
}

// trimFences drops surrounding whitespace and a markdown code fence, which some
// OpenAI-compatible backends add even in JSON mode.
func trimFences(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if !bytes.HasPrefix(raw, []byte("```")) {
		return raw
	}
	raw = bytes.TrimPrefix(raw, []byte("```"))
	raw = bytes.TrimPrefix(raw, []byte("json"))
	raw = bytes.TrimSuffix(bytes.TrimSpace(raw), []byte("```"))
	return bytes.TrimSpace(raw)
}
