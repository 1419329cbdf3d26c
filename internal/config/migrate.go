package config

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// document is a settings file as raw JSON members, so upgrades can move
// fields around without knowing every value's type.
type document map[string]json.RawMessage

// upgrade is one detect-and-rewrite step. It reports whether it changed the
// document and must be a no-op on documents it already upgraded.
type upgrade struct {
	name  string
	apply func(document) (bool, error)
}

// upgrades run in order, oldest format first.
var upgrades = []upgrade{
	{"flat settings", upgradeFlat},
	{"generation config keys", upgradeGenerationKeys},
}

func (d document) upgrade() (bool, error) {
	var changed bool
	for _, u := range upgrades {
		ok, err := u.apply(d)
		if err != nil {
			return changed, fmt.Errorf("%s: %w", u.name, err)
		}
		changed = changed || ok
	}
	return changed, nil
}

func (d document) decode(cfg *Config) error {
	bts, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := json.Unmarshal(bts, cfg); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// keepUnknown copies the members of d that known, the encoded settings, has
// no place for. Members both sides have as objects are merged recursively.
// Copied members go after the known ones, in key order.
func (d document) keepUnknown(known []byte, prefix string) ([]byte, error) {
	for _, key := range slices.Sorted(maps.Keys(d)) {
		raw := d[key]
		path := prefix + gjson.Escape(key)
		res := gjson.GetBytes(known, path)
		if !res.Exists() {
			var err error
			if known, err = sjson.SetRawBytes(known, path, raw); err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			continue
		}
		sub, err := d.object(key)
		if !res.IsObject() || err != nil || sub == nil {
			continue
		}
		if known, err = sub.keepUnknown(known, path+"."); err != nil {
			return nil, err
		}
	}
	return known, nil
}

// flatGeminiKeys are the top-level fields of the single-provider format that
// now live under gemini_config.
var flatGeminiKeys = []string{
	"api_key",
	"model_name",
	"system_instruction",
	"generation_config",
}

// upgradeFlat turns the single-provider format, recognized by a top-level
// api_key and no provider, into the multi-provider one.
func upgradeFlat(d document) (bool, error) {
	if _, ok := d["provider"]; ok {
		return false, nil
	}
	if _, ok := d["api_key"]; !ok {
		return false, nil
	}

	gemini := document{}
	for _, k := range flatGeminiKeys {
		if v, ok := d[k]; ok {
			gemini[k] = v
			delete(d, k)
		}
	}
	bts, err := json.Marshal(gemini)
	if err != nil {
		return false, err //nolint:wrapcheck
	}
	d["gemini_config"] = bts
	d["provider"] = json.RawMessage(`"gemini"`)
	return true, nil
}

// upgradeGenerationKeys renames the camel-case maxOutputTokens written by the
// single-provider format.
func upgradeGenerationKeys(d document) (bool, error) {
	gemini, err := d.object("gemini_config")
	if err != nil || gemini == nil {
		return false, err
	}
	gen, err := gemini.object("generation_config")
	if err != nil || gen == nil {
		return false, err
	}
	v, ok := gen["maxOutputTokens"]
	if !ok {
		return false, nil
	}
	if _, ok := gen["max_output_tokens"]; !ok {
		gen["max_output_tokens"] = v
	}
	delete(gen, "maxOutputTokens")

	if err := gemini.set("generation_config", gen); err != nil {
		return false, err
	}
	if err := d.set("gemini_config", gemini); err != nil {
		return false, err
	}
	return true, nil
}

// object returns the member key as a document, or nil when it is missing or
// null.
func (d document) object(key string) (document, error) {
	raw, ok := d[key]
	if !ok {
		return nil, nil
	}
	var obj document
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return obj, nil
}

func (d document) set(key string, v document) error {
	bts, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	d[key] = bts
	return nil
}
