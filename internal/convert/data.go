package convert

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/simplelearn-uz/convertbot/internal/formats"
)

// dataAdapter converts json/csv/xml by parsing the input fully into a
// generic tree (map / slice / scalar) and serializing to the target. The
// mapping is a plain element<->key/value/list convention, not schema-aware.
type dataAdapter struct {
	runner Runner
}

func (a *dataAdapter) convert(ctx context.Context, inputPath, outputPath, targetExt string) error {
	if targetExt == "xlsx" {
		da := &documentAdapter{runner: a.runner}
		return da.libreOffice(ctx, inputPath, outputPath, "xlsx")
	}

	data, err := parseData(inputPath)
	if err != nil {
		return err
	}

	switch targetExt {
	case "json", "txt":
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return err
		}
		return os.WriteFile(outputPath, out, 0o644)
	case "csv":
		return writeCSV(outputPath, data)
	case "xml":
		return writeXML(outputPath, data)
	default:
		return errors.Errorf("data conversion to %s is not supported", targetExt)
	}
}

func parseData(inputPath string) (interface{}, error) {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, err
	}
	switch formats.Extension(inputPath) {
	case "json":
		var data interface{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, errors.Wrap(err, "parse json")
		}
		return data, nil
	case "csv":
		return parseCSV(raw)
	case "xml":
		return parseXML(raw)
	default:
		return nil, errors.Errorf("unknown data format: %s", filepath.Ext(inputPath))
	}
}

// parseCSV reads the header row as keys and each following row as a record.
func parseCSV(raw []byte) (interface{}, error) {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(rows) == 0 {
		return []interface{}{}, nil
	}
	header := rows[0]
	records := make([]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]interface{}, len(header))
		for i, key := range header {
			if i < len(row) {
				record[key] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// writeCSV requires a list-of-records shape; anything else is a clean
// failure, never a crash.
func writeCSV(outputPath string, data interface{}) error {
	list, ok := data.([]interface{})
	if !ok || len(list) == 0 {
		return errors.New("data is not tabular: csv needs a non-empty list of records")
	}
	records := make([]map[string]interface{}, 0, len(list))
	keySet := map[string]struct{}{}
	for _, item := range list {
		record, ok := item.(map[string]interface{})
		if !ok {
			return errors.New("data is not tabular: csv rows must be objects")
		}
		for k := range record {
			keySet[k] = struct{}{}
		}
		records = append(records, record)
	}

	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, record := range records {
		row := make([]string, len(header))
		for i, key := range header {
			if v, ok := record[key]; ok && v != nil {
				row[i] = scalarString(v)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func scalarString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		// json numbers decode as float64; render integers without the dot
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// xmlNode is the intermediate used for both directions of the XML mapping.
type xmlNode struct {
	name     string
	text     string
	children []*xmlNode
}

func parseXML(raw []byte) (interface{}, error) {
	decoder := xml.NewDecoder(strings.NewReader(string(raw)))
	root, err := decodeElement(decoder)
	if err != nil {
		return nil, errors.Wrap(err, "parse xml")
	}
	if root == nil {
		return nil, errors.New("parse xml: empty document")
	}
	return nodeValue(root), nil
}

func decodeElement(decoder *xml.Decoder) (*xmlNode, error) {
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return decodeFrom(decoder, start)
		}
	}
}

func decodeFrom(decoder *xml.Decoder, start xml.StartElement) (*xmlNode, error) {
	node := &xmlNode{name: start.Name.Local}
	var text strings.Builder
	for {
		tok, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeFrom(decoder, t)
			if err != nil {
				return nil, err
			}
			node.children = append(node.children, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			node.text = strings.TrimSpace(text.String())
			return node, nil
		}
	}
}

// nodeValue maps a leaf element to its text, an element whose children all
// share one tag to a list, and anything else to a key/value object.
func nodeValue(node *xmlNode) interface{} {
	if len(node.children) == 0 {
		return node.text
	}
	allItems := true
	tags := map[string]int{}
	for _, child := range node.children {
		tags[child.name]++
		if child.name != "item" {
			allItems = false
		}
	}
	if allItems {
		list := make([]interface{}, 0, len(node.children))
		for _, child := range node.children {
			list = append(list, nodeValue(child))
		}
		return list
	}
	obj := make(map[string]interface{}, len(tags))
	for _, child := range node.children {
		value := nodeValue(child)
		if existing, ok := obj[child.name]; ok {
			// repeated sibling tags collect into a list
			if list, ok := existing.([]interface{}); ok {
				obj[child.name] = append(list, value)
			} else {
				obj[child.name] = []interface{}{existing, value}
			}
			continue
		}
		obj[child.name] = value
	}
	return obj
}

func writeXML(outputPath string, data interface{}) error {
	var sb strings.Builder
	sb.WriteString(xml.Header)
	encodeXML(&sb, "root", data, 0)
	return os.WriteFile(outputPath, []byte(sb.String()), 0o644)
}

func encodeXML(sb *strings.Builder, name string, data interface{}, depth int) {
	indent := strings.Repeat("  ", depth)
	switch t := data.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(indent + "<" + name + ">\n")
		for _, k := range keys {
			encodeXML(sb, k, t[k], depth+1)
		}
		sb.WriteString(indent + "</" + name + ">\n")
	case []interface{}:
		sb.WriteString(indent + "<" + name + ">\n")
		for _, item := range t {
			encodeXML(sb, "item", item, depth+1)
		}
		sb.WriteString(indent + "</" + name + ">\n")
	default:
		var escaped bytes.Buffer
		_ = xml.EscapeText(&escaped, []byte(scalarString(t)))
		sb.WriteString(indent + "<" + name + ">" + escaped.String() + "</" + name + ">\n")
	}
}
