// Package intake decodes assessment input files (JSON or YAML) into
// questions and raw evidence batches.
package intake

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"

	"github.com/niana0/vendor-security-assessment-tool/internal/model"
)

// Item formats
const (
	FormatText = "text"
	FormatHTML = "html"
)

// Split modes
const (
	SplitModeNone      = "none"
	SplitModeSentences = "sentences"
)

type fileInput struct {
	Vendor    string         `yaml:"vendor"`
	Questions []fileQuestion `yaml:"questions"`
	Evidence  []fileBatch    `yaml:"evidence"`
	Profile   *fileProfile   `yaml:"profile"`
	Incidents []fileIncident `yaml:"incidents"`
}

type fileProfile struct {
	Services     string `yaml:"services"`
	DataStored   string `yaml:"data_stored"`
	Integrations string `yaml:"integrations"`
}

type fileIncident struct {
	Title   string      `yaml:"title"`
	Year    interface{} `yaml:"year"`
	URL     string      `yaml:"url"`
	Snippet string      `yaml:"snippet"`
}

type fileQuestion struct {
	ID       interface{} `yaml:"id"`
	Text     string      `yaml:"text"`
	Category string      `yaml:"category"`
}

type fileBatch struct {
	SourceKind string     `yaml:"source_kind"`
	SourceRef  string     `yaml:"source_ref"`
	Format     string     `yaml:"format"`
	Split      string     `yaml:"split"`
	Items      []fileItem `yaml:"items"`
}

type fileItem struct {
	Text string      `yaml:"text"`
	Ref  string      `yaml:"ref"`
	Rank interface{} `yaml:"rank"`
	Page interface{} `yaml:"page"`
}

// UnmarshalYAML accepts either a bare string or a mapping
func (i *fileItem) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		i.Text = node.Value
		return nil
	}
	type plain fileItem
	return node.Decode((*plain)(i))
}

// LoadFile reads an input file from disk
func LoadFile(path string) (model.AssessmentInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.AssessmentInput{}, fmt.Errorf("read input: %w", err)
	}
	input, err := Parse(data)
	if err != nil {
		return model.AssessmentInput{}, fmt.Errorf("%s: %w", path, err)
	}
	return input, nil
}

// Decode reads and parses an input document from r
func Decode(r io.Reader) (model.AssessmentInput, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.AssessmentInput{}, fmt.Errorf("read input: %w", err)
	}
	return Parse(data)
}

// Parse parses a JSON or YAML input document. Unknown source kinds, categories,
// formats and split modes are structural errors; empty items are dropped.
func Parse(data []byte) (model.AssessmentInput, error) {
	var in fileInput
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&in); err != nil {
		if err == io.EOF {
			return model.AssessmentInput{}, fmt.Errorf("%w: empty input document", model.ErrInvalidInput)
		}
		return model.AssessmentInput{}, fmt.Errorf("%w: decode input: %v", model.ErrInvalidInput, err)
	}

	out := model.AssessmentInput{Vendor: strings.TrimSpace(in.Vendor)}

	for i, q := range in.Questions {
		category, ok := model.ParseCategory(q.Category)
		if !ok {
			return model.AssessmentInput{}, fmt.Errorf("%w: questions[%d]: unknown category %q", model.ErrInvalidInput, i, q.Category)
		}
		id, err := cast.ToStringE(q.ID)
		if err != nil {
			return model.AssessmentInput{}, fmt.Errorf("%w: questions[%d]: bad id: %v", model.ErrInvalidInput, i, err)
		}
		out.Questions = append(out.Questions, model.Question{
			ID:       strings.TrimSpace(id),
			Text:     q.Text,
			Category: category,
		})
	}

	for i, b := range in.Evidence {
		batch, err := convertBatch(b)
		if err != nil {
			return model.AssessmentInput{}, fmt.Errorf("%w: evidence[%d]: %v", model.ErrInvalidInput, i, err)
		}
		out.Evidence = append(out.Evidence, batch)
	}

	if p := in.Profile; p != nil {
		out.Profile = &model.VendorProfile{
			Services:     strings.TrimSpace(p.Services),
			DataStored:   strings.TrimSpace(p.DataStored),
			Integrations: strings.TrimSpace(p.Integrations),
		}
	}

	for i, inc := range in.Incidents {
		year, err := cast.ToStringE(inc.Year)
		if err != nil {
			return model.AssessmentInput{}, fmt.Errorf("%w: incidents[%d]: bad year: %v", model.ErrInvalidInput, i, err)
		}
		if strings.TrimSpace(inc.Title) == "" && strings.TrimSpace(inc.Snippet) == "" {
			continue
		}
		out.Incidents = append(out.Incidents, model.Incident{
			Title:   strings.TrimSpace(inc.Title),
			Year:    strings.TrimSpace(year),
			URL:     strings.TrimSpace(inc.URL),
			Snippet: strings.TrimSpace(inc.Snippet),
		})
	}

	return out, nil
}

func convertBatch(b fileBatch) (model.RawEvidenceBatch, error) {
	kind, ok := model.ParseSourceKind(b.SourceKind)
	if !ok {
		return model.RawEvidenceBatch{}, fmt.Errorf("unknown source_kind %q", b.SourceKind)
	}

	format := strings.ToLower(strings.TrimSpace(b.Format))
	switch format {
	case "", FormatText, FormatHTML:
	default:
		return model.RawEvidenceBatch{}, fmt.Errorf("unknown format %q", b.Format)
	}

	split := strings.ToLower(strings.TrimSpace(b.Split))
	switch split {
	case "", SplitModeNone, SplitModeSentences:
	default:
		return model.RawEvidenceBatch{}, fmt.Errorf("unknown split mode %q", b.Split)
	}

	batch := model.RawEvidenceBatch{SourceKind: kind, SourceRef: b.SourceRef}
	for j, item := range b.Items {
		text := item.Text
		if format == FormatHTML {
			stripped, err := StripHTML(text)
			if err != nil {
				return model.RawEvidenceBatch{}, fmt.Errorf("items[%d]: strip html: %w", j, err)
			}
			text = stripped
		}

		rank := rankOf(item)
		if split == SplitModeSentences {
			for _, sentence := range SplitSentences(text, MinSentenceLength) {
				batch.Items = append(batch.Items, model.RawItem{Text: sentence, Ref: item.Ref, Rank: rank})
			}
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		batch.Items = append(batch.Items, model.RawItem{Text: text, Ref: item.Ref, Rank: rank})
	}
	return batch, nil
}

// rankOf coerces rank (or page, for documents) leniently; bad values mean unknown
func rankOf(item fileItem) int {
	raw := item.Rank
	if raw == nil {
		raw = item.Page
	}
	rank, err := cast.ToIntE(raw)
	if err != nil || rank < 0 {
		return 0
	}
	return rank
}
