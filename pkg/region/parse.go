package region

import (
	"github.com/aretw0/fenced/pkg/core"
)

// Parse decodes the body of r. On malformed input it returns a nil record and
// a *core.ParseError; callers must treat that as "not applicable", never as an
// empty record, or they would strip user content on the next write.
func Parse(r *Region, codec Codec) (*core.Record, error) {
	if r == nil {
		return nil, core.ErrRegionNotFound
	}
	return codec.Decode(r.Body)
}

// IsApplicable reports whether the record opts in to the pipeline: the
// applies-marker field must be present and exactly boolean true.
func IsApplicable(rec *core.Record) bool {
	v, ok := rec.Get(core.KeyApplies)
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// WriteBack serializes rec and substitutes it for the region body inside
// document. Codecs implementing Editor rewrite the current body in place. The region is located again in document itself, so boundaries
// captured from an earlier read are never used. When the serialized body is
// identical the input is returned unchanged and callers should skip the write.
func WriteBack(document string, m Markers, codec Codec, rec *core.Record) (string, error) {
	r := Locate(document, m)
	if r == nil {
		return document, core.ErrRegionNotFound
	}

	var body string
	var err error
	if ed, ok := codec.(Editor); ok {
		body, err = ed.Edit(r.Body, rec)
	} else {
		body, err = codec.Encode(rec)
	}
	if err != nil {
		return document, err
	}
	if body == r.Body {
		return document, nil
	}
	return Splice(document, r, body), nil
}
