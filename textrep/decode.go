package textrep

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/dadrian/flexbuffers"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Decode renders the FlexBuffer in buf as a YAML document. Map keys come
// out in stored order and blobs as !!binary scalars.
func Decode(buf []byte) ([]byte, error) {
	root, err := flexbuffers.GetRoot(buf)
	if err != nil {
		return nil, errors.Wrap(err, "read root")
	}
	n, err := toNode(root)
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	enc := yaml.NewEncoder(&out)
	enc.SetIndent(2)
	if err := enc.Encode(n); err != nil {
		return nil, errors.Wrap(err, "render document")
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(err, "render document")
	}
	return out.Bytes(), nil
}

// DecodeJSON renders the FlexBuffer in buf as indented JSON. Blobs become
// base64 strings. NaN and infinities cannot be represented and fail.
func DecodeJSON(buf []byte) ([]byte, error) {
	root, err := flexbuffers.GetRoot(buf)
	if err != nil {
		return nil, errors.Wrap(err, "read root")
	}
	obj, err := root.ToObject()
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	out, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "render json")
	}
	return append(out, '\n'), nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func toNode(r *flexbuffers.Reference) (*yaml.Node, error) {
	switch {
	case r.IsNull():
		return scalar("!!null", "null"), nil
	case r.IsBool():
		v, err := r.BoolValue()
		return scalar("!!bool", strconv.FormatBool(v)), err
	case r.IsInt():
		v, err := r.IntValue()
		return scalar("!!int", strconv.FormatInt(v, 10)), err
	case r.IsUInt():
		v, err := r.UIntValue()
		return scalar("!!int", strconv.FormatUint(v, 10)), err
	case r.IsFloat():
		v, err := r.FloatValue()
		return scalar("!!float", formatFloat(v)), err
	case r.IsString():
		v, err := r.StringValue()
		return scalar("!!str", v), err
	case r.IsBlob():
		v, err := r.BlobValue()
		return scalar("!!binary", base64.StdEncoding.EncodeToString(v)), err
	case r.IsVector():
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for i := 0; i < n; i++ {
			e, err := r.Index(i)
			if err != nil {
				return nil, err
			}
			c, err := toNode(e)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	case r.IsMap():
		n, err := r.Length()
		if err != nil {
			return nil, err
		}
		m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i := 0; i < n; i++ {
			k, err := r.KeyAt(i)
			if err != nil {
				return nil, err
			}
			v, err := r.ValueAt(i)
			if err != nil {
				return nil, err
			}
			c, err := toNode(v)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar("!!str", k), c)
		}
		return m, nil
	}
	return nil, errors.Errorf("%s: cannot render %v", r.Path(), r.Type())
}

// formatFloat keeps integral floats recognisable as floats, so the text
// encodes back to the same type.
func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return ".nan"
	case math.IsInf(v, 1):
		return ".inf"
	case math.IsInf(v, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
