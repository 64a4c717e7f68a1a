package config

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// detectUnknownFields compares the decoded document with known struct fields.
func detectUnknownFields(raw any) []string {
	root, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	var warnings []string
	known := getYAMLFields(reflect.TypeOf(Study{}))
	for _, key := range sortedKeys(root) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	warnings = append(warnings, checkSection(root["coupling"], "coupling", reflect.TypeOf(CouplingConfig{}))...)
	warnings = append(warnings, checkSection(root["keywords"], "keywords", reflect.TypeOf(KeywordsConfig{}))...)
	warnings = append(warnings, checkList(root["participants"], "participant", reflect.TypeOf(ParticipantConfig{}))...)
	warnings = append(warnings, checkList(root["versions"], "version probe", reflect.TypeOf(VersionConfig{}))...)

	return warnings
}

func checkSection(raw any, section string, t reflect.Type) []string {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil
	}
	var warnings []string
	known := getYAMLFields(t)
	for _, key := range sortedKeys(fields) {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", key, section))
		}
	}
	return warnings
}

func checkList(raw any, kind string, t reflect.Type) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	var warnings []string
	known := getYAMLFields(t)
	for i, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s %d", kind, i+1)
		if name, ok := fields["name"].(string); ok && name != "" {
			label = fmt.Sprintf("%s %q", kind, name)
		}
		for _, key := range sortedKeys(fields) {
			if !known[key] {
				warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", key, label))
			}
		}
	}
	return warnings
}

// getYAMLFields returns a map of known YAML field names for a struct type.
func getYAMLFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("yaml")
		if tag == "" || tag == "-" {
			continue
		}
		// Extract field name from tag (before comma)
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
