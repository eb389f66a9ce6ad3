package resource

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// ModelVariant references a model with a whole-block rotation.
type ModelVariant struct {
	Model  string `json:"model"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	UVLock bool   `json:"uvlock"`
	Weight int    `json:"weight"`
}

// VariantList is a weighted list of variants. A single object is accepted
// where a list is expected.
type VariantList []ModelVariant

func (l *VariantList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		var vs []ModelVariant
		if err := json.Unmarshal(b, &vs); err != nil {
			return err
		}
		*l = vs
		return nil
	}
	var v ModelVariant
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*l = VariantList{v}
	return nil
}

// MultipartCase applies its variants when its condition holds.
type MultipartCase struct {
	When  map[string]interface{} `json:"when"`
	Apply VariantList            `json:"apply"`
}

// BlockDefinition maps block states to models.
type BlockDefinition struct {
	Variants  map[string]VariantList `json:"variants"`
	Multipart []MultipartCase        `json:"multipart"`
}

// Models returns the variants to draw for the given state properties.
// The first variant of each weighted list is used.
func (d *BlockDefinition) Models(props map[string]string) []ModelVariant {
	var out []ModelVariant
	for _, key := range d.variantKeys() {
		if !matchVariantKey(key, props) {
			continue
		}
		if vs := d.Variants[key]; len(vs) > 0 {
			out = append(out, vs[0])
		}
		break
	}
	for _, c := range d.Multipart {
		if c.When != nil && !matchCondition(c.When, props) {
			continue
		}
		if len(c.Apply) > 0 {
			out = append(out, c.Apply[0])
		}
	}
	return out
}

// DefaultModels returns the variants drawn when no state is known:
// the first variant in key order and unconditional multipart cases.
func (d *BlockDefinition) DefaultModels() []ModelVariant {
	var out []ModelVariant
	if keys := d.variantKeys(); len(keys) > 0 {
		if vs := d.Variants[keys[0]]; len(vs) > 0 {
			out = append(out, vs[0])
		}
	}
	for _, c := range d.Multipart {
		if c.When == nil && len(c.Apply) > 0 {
			out = append(out, c.Apply[0])
		}
	}
	return out
}

func (d *BlockDefinition) variantKeys() []string {
	keys := make([]string, 0, len(d.Variants))
	for k := range d.Variants {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func matchVariantKey(key string, props map[string]string) bool {
	if key == "" || key == "normal" {
		return true
	}
	for _, kv := range strings.Split(key, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			return false
		}
		if props[k] != v {
			return false
		}
	}
	return true
}

func matchCondition(cond map[string]interface{}, props map[string]string) bool {
	if or, ok := cond["OR"]; ok {
		for _, c := range conditionList(or) {
			if matchCondition(c, props) {
				return true
			}
		}
		return false
	}
	if and, ok := cond["AND"]; ok {
		for _, c := range conditionList(and) {
			if !matchCondition(c, props) {
				return false
			}
		}
		return true
	}
	for k, v := range cond {
		if !matchValue(fmt.Sprint(v), props[k]) {
			return false
		}
	}
	return true
}

func matchValue(expected, actual string) bool {
	negate := strings.HasPrefix(expected, "!")
	expected = strings.TrimPrefix(expected, "!")
	for _, opt := range strings.Split(expected, "|") {
		if opt == actual {
			return !negate
		}
	}
	return negate
}

func conditionList(v interface{}) []map[string]interface{} {
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]map[string]interface{}, 0, len(list))
	for _, c := range list {
		if m, ok := c.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}
