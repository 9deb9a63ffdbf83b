package config

import "fmt"

// ActionProperty is one actionPropertyDefinition entry. Entries may be plain
// descriptions or mappings; Raw keeps the original for the oracle.
type ActionProperty struct {
	TunnelBuffer     float64
	CasualtyModifier float64
	Raw              interface{}
}

func (a *ActionProperty) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	a.Raw = normalize(raw)
	m, ok := a.Raw.(map[string]interface{})
	if !ok {
		return nil
	}
	a.TunnelBuffer = number(m["tunnel_buffer"])
	a.CasualtyModifier = number(m["casualty_modifier"])
	return nil
}

func (a ActionProperty) MarshalYAML() (interface{}, error) {
	return a.Raw, nil
}

func number(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// normalize turns yaml.v2 maps into string keyed maps so the value can be
// encoded as JSON.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case []interface{}:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	}
	return v
}
