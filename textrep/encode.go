// Package textrep converts between FlexBuffers and their text
// representation. Documents are YAML; JSON input is accepted as the YAML
// subset it is.
package textrep

import (
	"encoding/base64"
	"io"
	"strings"

	"github.com/dadrian/flexbuffers"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Deeper nesting is rejected; it also stops self-referencing aliases.
const maxDepth = 1000

// Options configures the Builder used to encode a document.
type Options struct {
	Flags       flexbuffers.BuilderFlag
	InitialSize int
}

// DefaultOptions shares keys, strings and key vectors.
var DefaultOptions = Options{Flags: flexbuffers.ShareAll, InitialSize: 1024}

func (o Options) builder() *flexbuffers.Builder {
	size := o.InitialSize
	if size <= 0 {
		size = DefaultOptions.InitialSize
	}
	return flexbuffers.NewBuilder(size, o.Flags)
}

// Encode reads a document from r and writes its FlexBuffer to w.
func Encode(r io.Reader, w io.Writer, opts Options) error {
	src, err := io.ReadAll(r)
	if err != nil {
		return errors.Wrap(err, "read document")
	}
	out, err := EncodeBytes(src, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return errors.Wrap(err, "write buffer")
}

// EncodeBytes parses a YAML or JSON document and returns its FlexBuffer.
//
// Scalars keep the type YAML resolves for them: null, bool, int, float and
// str. Integers beyond int64 become UInt. !!binary scalars become blobs and
// timestamps stay strings. Mapping keys must be strings; mappings are
// written in document order and sorted by the builder.
func EncodeBytes(src []byte, opts Options) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, errors.Wrap(err, "parse document")
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	b := opts.builder()
	if err := encodeNode(b, doc.Content[0], 0); err != nil {
		return nil, err
	}
	out, err := b.Finish()
	if err != nil {
		return nil, errors.Wrap(err, "finish")
	}
	return out, nil
}

func position(n *yaml.Node, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "line %d, column %d", n.Line, n.Column)
}

func encodeNode(b *flexbuffers.Builder, n *yaml.Node, depth int) error {
	if depth > maxDepth {
		return position(n, errors.Errorf("nesting deeper than %d", maxDepth))
	}
	switch n.Kind {
	case yaml.AliasNode:
		return encodeNode(b, n.Alias, depth+1)
	case yaml.SequenceNode:
		if err := b.StartVector(); err != nil {
			return position(n, err)
		}
		for _, c := range n.Content {
			if err := encodeNode(b, c, depth+1); err != nil {
				return err
			}
		}
		return position(n, b.End())
	case yaml.MappingNode:
		if err := b.StartMap(false); err != nil {
			return position(n, err)
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			for key.Kind == yaml.AliasNode {
				key = key.Alias
			}
			if key.Kind != yaml.ScalarNode || key.ShortTag() != "!!str" {
				return position(key, errors.Errorf("mapping key %q is %s, not a string", key.Value, key.ShortTag()))
			}
			if err := b.AddKey(key.Value); err != nil {
				return position(key, err)
			}
			if err := encodeNode(b, n.Content[i+1], depth+1); err != nil {
				return err
			}
		}
		return position(n, b.End())
	case yaml.ScalarNode:
		return position(n, encodeScalar(b, n))
	}
	return position(n, errors.Errorf("unexpected node kind %v", n.Kind))
}

func encodeScalar(b *flexbuffers.Builder, n *yaml.Node) error {
	switch tag := n.ShortTag(); tag {
	case "!!null":
		return b.AddNull()
	case "!!bool":
		var v bool
		if err := n.Decode(&v); err != nil {
			return err
		}
		return b.AddBool(v)
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return b.AddInt(i)
		}
		var u uint64
		if err := n.Decode(&u); err != nil {
			return errors.Wrapf(err, "integer %q", n.Value)
		}
		return b.AddUInt(u)
	case "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		return b.AddFloat(f)
	case "!!str", "!!timestamp":
		return b.AddString(n.Value)
	case "!!binary":
		data, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(n.Value), ""))
		if err != nil {
			return errors.Wrap(err, "binary scalar")
		}
		return b.AddBlob(data)
	default:
		return errors.Errorf("unsupported tag %s", tag)
	}
}
