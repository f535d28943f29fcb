package miom

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/LouisonF/miom/logger"
)

// Serialized network container. The native format is CBOR wrapped in gzip
// (extension ".miom"); a plain JSON rendering of the same document is
// supported for hand-edited models. Parsing of third-party model formats
// (SBML, MPS) is out of scope.

type networkDoc struct {
	Reactions   []reactionDoc `cbor:"reactions" json:"reactions"`
	Metabolites []string      `cbor:"metabolites" json:"metabolites"`
	Stoich      []stoichDoc   `cbor:"stoich" json:"stoich"`
}

type reactionDoc struct {
	ID string  `cbor:"id" json:"id"`
	LB float64 `cbor:"lb" json:"lb"`
	UB float64 `cbor:"ub" json:"ub"`
}

type stoichDoc struct {
	Met   int     `cbor:"met" json:"met"`
	Rxn   int     `cbor:"rxn" json:"rxn"`
	Value float64 `cbor:"value" json:"value"`
}

func (d *networkDoc) toNetwork() (*Network, error) {
	reactions := make([]Reaction, len(d.Reactions))
	for i, r := range d.Reactions {
		reactions[i] = Reaction{ID: r.ID, LB: r.LB, UB: r.UB}
	}
	metabolites := make([]Metabolite, len(d.Metabolites))
	for i, id := range d.Metabolites {
		metabolites[i] = Metabolite{ID: id}
	}
	stoich := make([]Stoich, len(d.Stoich))
	for i, s := range d.Stoich {
		stoich[i] = Stoich{Met: s.Met, Rxn: s.Rxn, Value: s.Value}
	}
	return NewNetwork(reactions, metabolites, stoich)
}

func docFromNetwork(n *Network) *networkDoc {
	d := &networkDoc{
		Reactions:   make([]reactionDoc, n.NumReactions()),
		Metabolites: make([]string, n.NumMetabolites()),
		Stoich:      make([]stoichDoc, 0, len(n.stoich)),
	}
	for i := 0; i < n.NumReactions(); i++ {
		r := n.Reaction(i)
		d.Reactions[i] = reactionDoc{ID: r.ID, LB: r.LB, UB: r.UB}
	}
	for i := 0; i < n.NumMetabolites(); i++ {
		d.Metabolites[i] = n.Metabolite(i).ID
	}
	for _, s := range n.stoich {
		d.Stoich = append(d.Stoich, stoichDoc{Met: s.Met, Rxn: s.Rxn, Value: s.Value})
	}
	return d
}

// LoadNetwork reads a serialized network from a local path or an http(s)
// URL. The payload format is detected from the content: gzip-wrapped CBOR,
// bare CBOR, or JSON.
func LoadNetwork(src string) (*Network, error) {
	var (
		data []byte
		err  error
	)
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		data, err = fetchNetwork(src)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read model %s", src)
	}
	n, err := decodeNetwork(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode model %s", src)
	}
	log := logger.Logger()
	log.Debug().
		Str("source", src).
		Int("reactions", n.NumReactions()).
		Int("metabolites", n.NumMetabolites()).
		Msg("model loaded")
	return n, nil
}

func fetchNetwork(url string) ([]byte, error) {
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func decodeNetwork(data []byte) (*Network, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrBadInput, "empty model payload")
	}

	// gzip magic
	if len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, err
		}
	}

	// Hand-edited JSON may start with a BOM or whitespace.
	text := bytes.TrimPrefix(data, []byte{0xef, 0xbb, 0xbf})
	text = bytes.TrimLeft(text, " \t\r\n")

	var doc networkDoc
	if len(text) > 0 && text[0] == '{' {
		if err := json.Unmarshal(text, &doc); err != nil {
			return nil, err
		}
	} else {
		if err := cbor.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	}
	return doc.toNetwork()
}

// SaveNetwork writes the network to path. A ".json" extension selects the
// JSON rendering; anything else gets the native gzip-wrapped CBOR container.
func SaveNetwork(n *Network, path string) error {
	doc := docFromNetwork(n)

	if filepath.Ext(path) == ".json" {
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to encode model")
		}
		return errors.Wrapf(os.WriteFile(path, data, 0o644), "failed to write model %s", path)
	}

	raw, err := cbor.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		return errors.Wrap(err, "failed to compress model")
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, "failed to compress model")
	}
	return errors.Wrapf(os.WriteFile(path, buf.Bytes(), 0o644), "failed to write model %s", path)
}
