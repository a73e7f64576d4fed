package fetch

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// Response formats
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
	FormatHTML = "html"
	FormatText = "text"
)

func parseFormat(format string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(format)); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatYAML, FormatTOML, FormatHTML, FormatText:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", format)
	}
}

// sniffFormat picks a format from the Content-Type header
func sniffFormat(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(contentType)
	}
	switch {
	case strings.Contains(mediaType, "json"):
		return FormatJSON
	case strings.Contains(mediaType, "yaml"):
		return FormatYAML
	case strings.Contains(mediaType, "toml"):
		return FormatTOML
	case mediaType == "text/html", mediaType == "application/xhtml+xml":
		return FormatHTML
	default:
		return FormatText
	}
}

func decode(status int, header http.Header, body []byte, format string) (*Response, error) {
	resp := &Response{
		Status:  status,
		Headers: flattenHeaders(header),
		Body:    string(body),
	}

	contentType := header.Get("Content-Type")
	if format == FormatAuto {
		format = sniffFormat(contentType)
	}
	resp.Format = format
	if len(bytes.TrimSpace(body)) == 0 {
		return resp, nil
	}

	var err error
	switch format {
	case FormatJSON:
		resp.Data, err = ParseJSON(body)
	case FormatYAML:
		resp.Data, err = ParseYAML(body)
	case FormatTOML:
		resp.Data, err = ParseTOML(body)
	case FormatHTML:
		err = decodeHTML(resp, body, contentType)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s response: %w", format, err)
	}
	return resp, nil
}

// ParseJSON decodes a JSON document into generic values
func ParseJSON(data []byte) (any, error) {
	var v any
	if err := sonic.ConfigStd.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseYAML decodes a YAML document into generic values
func ParseYAML(data []byte) (any, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

// ParseTOML decodes a TOML document into generic values
func ParseTOML(data []byte) (any, error) {
	var v map[string]any
	if err := toml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return normalize(v), nil
}

// normalize rewrites decoder output into string-keyed maps and slices
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, item := range x {
			x[k] = normalize(item)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range x {
			x[i] = normalize(item)
		}
		return x
	default:
		return v
	}
}

func decodeHTML(resp *Response, body []byte, contentType string) error {
	utf8Body, err := toUTF8(body, contentType)
	if err != nil {
		utf8Body = body
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(utf8Body))
	if err != nil {
		return err
	}
	resp.Body = string(utf8Body)
	resp.Title = strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript, template").Remove()
	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	resp.Text = strings.Join(strings.Fields(root.Text()), " ")
	return nil
}

// toUTF8 converts body using the declared charset, or a detected one
// when the header names none
func toUTF8(body []byte, contentType string) ([]byte, error) {
	if _, params, err := mime.ParseMediaType(contentType); err != nil || params["charset"] == "" {
		if utf8.Valid(body) {
			return body, nil
		}
		contentType = "text/html; charset=" + DetectCharset(body)
	}
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(reader)
}

// DetectCharset guesses the charset of text, defaulting to utf-8
func DetectCharset(data []byte) string {
	result, err := chardet.NewHtmlDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

func flattenHeaders(header http.Header) map[string]string {
	out := make(map[string]string, len(header))
	for k, v := range header {
		if len(v) > 0 {
			out[k] = strings.Join(v, ", ")
		}
	}
	return out
}
