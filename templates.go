package main

// templates module
//
// Copyright (c) 2025 - Valentin Kuznetsov <vkuznet@gmail.com>
//

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
)

// pageTemplates holds web page templates parsed once from embedded static area
var pageTemplates = template.Must(template.ParseFS(StaticFs, "static/templates/*.tmpl"))

// TmplRecord represent template record
type TmplRecord map[string]any

// GetString converts given value for provided key to string data-type
func (t TmplRecord) GetString(key string) string {
	if v, ok := t[key]; ok && v != nil {
		return fmt.Sprintf("%v", v)
	}
	return ""
}

// GetInt converts given value for provided key to int data-type, missing or
// non numeric values are reported as zero
func (t TmplRecord) GetInt(key string) int {
	switch v := t[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return 0
}

// helper function to render named template with given data
func renderTemplate(name string, data TmplRecord) (string, error) {
	if data == nil {
		data = make(TmplRecord)
	}
	buf := new(bytes.Buffer)
	if err := pageTemplates.ExecuteTemplate(buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
