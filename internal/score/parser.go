package score

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// node is a generic element used to walk the document in order without
// binding to a fixed schema.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

func (n *node) is(name string) bool {
	return strings.EqualFold(n.XMLName.Local, name)
}

func (n *node) attr(names ...string) (string, bool) {
	for _, name := range names {
		for _, a := range n.Attrs {
			if strings.EqualFold(a.Name.Local, name) {
				return strings.TrimSpace(a.Value), true
			}
		}
	}
	return "", false
}

// parseContext is threaded through the parse calls in place of shared
// parser state.
type parseContext struct {
	scorePath string
	score     *Score
}

// ParseFile reads and parses the score document at path. Wave paths in the
// document are resolved against the file's directory.
func ParseFile(path string) (*Score, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read score %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse turns a score document into a sorted Score. scorePath is only used
// to resolve wave paths and may be empty. Malformed documents fail as a whole;
// unreadable attribute values fall back to their defaults.
func Parse(data []byte, scorePath string) (*Score, error) {
	var root node
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, fmt.Errorf("parse score: %w", err)
	}
	ctx := parseContext{scorePath: scorePath, score: New()}
	if root.is("score") {
		loadScore(ctx, &root)
	}
	ctx.score.Sort()
	return ctx.score, nil
}

func loadScore(ctx parseContext, n *node) {
	if v, ok := n.attr("bpm"); ok {
		if bpm, err := strconv.ParseFloat(v, 64); err == nil && bpm > 0 && !math.IsInf(bpm, 0) {
			ctx.score.BPM = bpm
		}
	}
	if v, ok := n.attr("beatsPerMeasure"); ok {
		if bpm, err := strconv.Atoi(v); err == nil && bpm > 0 {
			ctx.score.BeatsPerMeasure = bpm
		}
	}
	for i := range n.Children {
		if child := &n.Children[i]; child.is("instrument") {
			loadInstrument(ctx, child)
		}
	}
}

func loadInstrument(ctx parseContext, n *node) {
	v, _ := n.attr("instrument")
	kind := Kind(v)
	for i := range n.Children {
		child := &n.Children[i]
		switch {
		case child.is("note"):
			ctx.score.Notes = append(ctx.score.Notes, loadNote(child, kind))
		case child.is("wavetable"):
			loadWavetable(ctx, child)
		}
	}
}

func loadWavetable(ctx parseContext, n *node) {
	for i := range n.Children {
		child := &n.Children[i]
		if !child.is("wav") {
			continue
		}
		if p, ok := child.attr("path"); ok && p != "" {
			ctx.score.WavePaths = append(ctx.score.WavePaths, ResolveWavePath(ctx.scorePath, p))
		}
	}
}

func loadNote(n *node, kind Kind) Note {
	note := Note{
		Instrument: kind,
		Measure:    intAttr(n, 0, "measure"),
		Beat:       floatAttr(n, 0, "beat"),
		Duration:   DefaultDuration,
	}
	if v, ok := n.attr("duration"); ok {
		if d, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(d) && !math.IsInf(d, 0) {
			note.Duration = d * DurationScale
		}
	}
	note.Pitch, _ = n.attr("note")
	if kind == KindWavetable {
		w := &WaveNote{
			Index:     intAttr(n, 0, "wave"),
			LoopStart: floatAttr(n, 0, "loopStart"),
			LoopEnd:   floatAttr(n, 0, "loopEnd"),
		}
		if w.Index < 0 {
			w.Index = 0
		}
		note.Wave = w
	}
	if note.Measure < 0 {
		note.Measure = 0
	}
	return note
}

func intAttr(n *node, def int, names ...string) int {
	v, ok := n.attr(names...)
	if !ok {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int(f)
	}
	return def
}

func floatAttr(n *node, def float64, names ...string) float64 {
	v, ok := n.attr(names...)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return f
}
